package layout

import "errors"

var (
	// ErrInvalidInput 表示输入在绘制前即被拒绝：空消息、非法尺寸、缺少角色分配等。
	ErrInvalidInput = errors.New("invalid input")
	// ErrAssetUnavailable 表示字体、背景或角色图片无法加载。
	ErrAssetUnavailable = errors.New("asset unavailable")
	// ErrMeasurement 表示测量回调返回了负数或非有限值，按资源不可用处理。
	ErrMeasurement = errors.Join(ErrAssetUnavailable, errors.New("inconsistent measurement"))
)
