package renderer

import (
	"image"

	"github.com/ByLCY/weeed/layout"
)

// Renderer 将布局结果输出为最终文件。Render 返回 PNG 字节。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// AssetLoader 按句柄加载背景、角色图片与字体。返回的图片视为只读。
type AssetLoader interface {
	Background(name string) (image.Image, error)
	Character(name string) (image.Image, error)
	Font(name string) ([]byte, error)
}
