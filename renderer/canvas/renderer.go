package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/weeed/fonts"
	"github.com/ByLCY/weeed/layout"
	"github.com/ByLCY/weeed/renderer"
)

// 1 像素 = 1 个画布单位。
var pixel = canvas.DPMM(1.0)

// Renderer draws layout results via github.com/tdewolff/canvas and rasterizes them to PNG.
type Renderer struct {
	loader renderer.AssetLoader

	fontMu       sync.Mutex
	fontFamilies map[string]*canvas.FontFamily
}

var (
	_ renderer.Renderer    = (*Renderer)(nil)
	_ layout.Typesetter    = (*Renderer)(nil)
	_ layout.ImageMeasurer = (*Renderer)(nil)
)

// NewRenderer creates a renderer resolving assets through loader.
// With a nil loader only builtin fonts are available.
func NewRenderer(loader renderer.AssetLoader) *Renderer {
	return &Renderer{
		loader:       loader,
		fontFamilies: map[string]*canvas.FontFamily{},
	}
}

// Render renders the result into PNG bytes.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	img, err := r.RenderImage(result)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderImage 绘制所有分格并返回 RGBA 图像。资源在绘制前全部加载，任何失败都不会返回半成品。
func (r *Renderer) RenderImage(result *layout.Result) (*image.RGBA, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: 渲染结果为空", layout.ErrInvalidInput)
	}
	if len(result.Panels) == 0 || result.Width <= 0 || result.Height <= 0 {
		return nil, fmt.Errorf("%w: 缺少可渲染的分格", layout.ErrInvalidInput)
	}

	background, err := r.background(result.Resources.Background)
	if err != nil {
		return nil, err
	}
	family, err := r.ensureFontFamily(result.Resources.Font)
	if err != nil {
		return nil, err
	}
	characters, err := r.characters(result.Panels)
	if err != nil {
		return nil, err
	}

	c := canvas.New(float64(result.Width), float64(result.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	for _, panel := range result.Panels {
		ctx.DrawImage(0, float64(panel.Y), background, pixel)
		for _, slot := range []*layout.SlotBox{panel.Left, panel.Right} {
			if slot == nil {
				continue
			}
			drawCharacter(ctx, slot.Character, characters[slot.Character.Path])
			r.drawTextBox(ctx, slot.Text, family, result.Resources.Font)
		}
		drawLines(ctx, panel.Lines)
	}

	return rasterizer.Draw(c, pixel, canvas.DefaultColorSpace), nil
}

// TextWidth 实现 layout.Typesetter，返回单行文本的像素宽度。
func (r *Renderer) TextWidth(text string, font layout.FontResource) (float64, error) {
	face, err := r.fontFace(font, layout.White)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text), nil
}

// LineHeight 实现 layout.Typesetter，返回字体的行高（像素）。
func (r *Renderer) LineHeight(font layout.FontResource) (float64, error) {
	face, err := r.fontFace(font, layout.White)
	if err != nil {
		return 0, err
	}
	return face.Metrics().LineHeight, nil
}

// ImageSize 实现 layout.ImageMeasurer，返回角色图片的原始尺寸。
func (r *Renderer) ImageSize(handle string) (int, int, error) {
	img, err := r.character(handle)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (r *Renderer) background(name string) (image.Image, error) {
	if r.loader == nil {
		return nil, fmt.Errorf("%w: 未配置资源加载器，无法读取背景 %s", layout.ErrAssetUnavailable, name)
	}
	img, err := r.loader.Background(name)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取背景 %s 失败: %w", layout.ErrAssetUnavailable, name, err)
	}
	return img, nil
}

func (r *Renderer) character(name string) (image.Image, error) {
	if r.loader == nil {
		return nil, fmt.Errorf("%w: 未配置资源加载器，无法读取角色 %s", layout.ErrAssetUnavailable, name)
	}
	img, err := r.loader.Character(name)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取角色 %s 失败: %w", layout.ErrAssetUnavailable, name, err)
	}
	return img, nil
}

func (r *Renderer) characters(panels []layout.PanelBox) (map[string]image.Image, error) {
	out := map[string]image.Image{}
	for _, panel := range panels {
		for _, slot := range []*layout.SlotBox{panel.Left, panel.Right} {
			if slot == nil || slot.Character.Path == "" {
				continue
			}
			if _, ok := out[slot.Character.Path]; ok {
				continue
			}
			img, err := r.character(slot.Character.Path)
			if err != nil {
				return nil, err
			}
			out[slot.Character.Path] = img
		}
	}
	return out, nil
}

// drawCharacter 在私有副本上缩放（必要时镜像）角色图，再按自身 alpha 贴到画布上。
func drawCharacter(ctx *canvas.Context, box layout.ImageBox, src image.Image) {
	if src == nil || box.Width <= 0 || box.Height <= 0 {
		return
	}
	thumb := scaleImage(src, box.Width, box.Height)
	if box.Mirror {
		mirror(thumb)
	}
	ctx.DrawImage(float64(box.X), float64(box.Y), thumb, pixel)
}

// scaleImage 返回缩放到 w×h 的新图像，源图像不会被修改。
func scaleImage(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		xdraw.Draw(dst, dst.Bounds(), src, sb.Min, xdraw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst
}

// mirror 原地水平翻转图像。
func mirror(img *image.RGBA) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			li, ri := l*4, r*4
			for k := 0; k < 4; k++ {
				row[li+k], row[ri+k] = row[ri+k], row[li+k]
			}
		}
	}
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, family *canvas.FontFamily, font layout.FontResource) {
	if len(tb.Lines) == 0 {
		return
	}
	face := family.Face(fontSizePt(font), colorFromLayout(tb.Color), canvas.FontRegular, canvas.FontNormal)

	// 基线位置：行顶部加上字体上升部 (Ascent)。
	ascent := face.Metrics().Ascent
	cursorY := float64(tb.Y)
	for _, line := range tb.Lines {
		ctx.DrawText(float64(tb.X), cursorY+ascent, canvas.NewTextLine(face, line, canvas.Left))
		cursorY += float64(tb.LineHeight + tb.LineGap)
	}
}

// drawLines 绘制分隔线（像素单位）
func drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = layout.DefaultSeparatorWidth
		}
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(float64(w))
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(float64(ln.X2-ln.X1), float64(ln.Y2-ln.Y1))
		ctx.DrawPath(float64(ln.X1), float64(ln.Y1), p)
	}
}

func (r *Renderer) fontFace(font layout.FontResource, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(fontSizePt(font), colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[font.Src]; ok {
		return family, nil
	}

	data, err := r.loadFontBytes(font)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", layout.ErrAssetUnavailable, err)
	}
	name := font.Name
	if name == "" {
		name = font.Src
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("%w: 解析字体 %s 失败: %w", layout.ErrAssetUnavailable, font.Src, err)
	}
	r.fontFamilies[font.Src] = family
	return family, nil
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	if fonts.IsBuiltin(font.Src) {
		return fonts.Load(font.Src)
	}
	if r.loader == nil {
		return nil, fmt.Errorf("未配置资源加载器时只能使用内置字体：%s", font.Src)
	}
	return r.loader.Font(font.Src)
}

// fontSizePt 把像素字号换算为 pt。
func fontSizePt(font layout.FontResource) float64 {
	size := font.Size
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	return size * layout.PxToPt
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
