package layout

import "fmt"

// 默认几何参数，沿用最初 450×300 的分格尺寸。
const (
	DefaultPanelWidth          = 450
	DefaultPanelHeight         = 300
	DefaultTextColumnWidth     = 300
	DefaultTextMargin          = 10
	DefaultMinCharacterHeight  = 150
	DefaultFontSize            = 15
	DefaultLineSpacing         = 4
	DefaultMaxLinesBeforeSplit = 3
	DefaultSeparatorWidth      = 4
)

// BuildOptions 配置布局阶段所需的依赖与参数。
type BuildOptions struct {
	Typesetter Typesetter
	Images     ImageMeasurer
	Config     Config
	Resources  ResourceSet
	Meta       ComicMeta
}

// Config 是单次渲染的几何参数，渲染过程中不会被修改。
type Config struct {
	PanelWidth          int `json:"panelWidth" mapstructure:"panel_width"`
	PanelHeight         int `json:"panelHeight" mapstructure:"panel_height"`
	TextColumnWidth     int `json:"textColumnWidth" mapstructure:"text_column_width"`
	TextMargin          int `json:"textMargin" mapstructure:"text_margin"`
	MinCharacterHeight  int `json:"minCharacterHeight" mapstructure:"min_character_height"`
	LineSpacing         int `json:"lineSpacing" mapstructure:"line_spacing"`
	MaxLinesBeforeSplit int `json:"maxLinesBeforeSplit" mapstructure:"max_lines_before_split"`
}

// DefaultConfig 返回默认几何参数。
func DefaultConfig() Config {
	return Config{
		PanelWidth:          DefaultPanelWidth,
		PanelHeight:         DefaultPanelHeight,
		TextColumnWidth:     DefaultTextColumnWidth,
		TextMargin:          DefaultTextMargin,
		MinCharacterHeight:  DefaultMinCharacterHeight,
		LineSpacing:         DefaultLineSpacing,
		MaxLinesBeforeSplit: DefaultMaxLinesBeforeSplit,
	}
}

// CharacterWidth 是角色缩略图的最大宽度：半格宽度减去两侧边距。
func (c Config) CharacterWidth() int {
	return c.PanelWidth/2 - 2*c.TextMargin
}

// Validate 检查几何参数是否可用。
func (c Config) Validate() error {
	switch {
	case c.PanelWidth <= 0 || c.PanelHeight <= 0:
		return fmt.Errorf("%w: 分格尺寸必须为正数 (%dx%d)", ErrInvalidInput, c.PanelWidth, c.PanelHeight)
	case c.TextColumnWidth <= 0:
		return fmt.Errorf("%w: 文本列宽必须为正数: %d", ErrInvalidInput, c.TextColumnWidth)
	case c.TextMargin < 0:
		return fmt.Errorf("%w: 边距不能为负数: %d", ErrInvalidInput, c.TextMargin)
	case c.MinCharacterHeight <= 0:
		return fmt.Errorf("%w: 角色最小高度必须为正数: %d", ErrInvalidInput, c.MinCharacterHeight)
	case c.MinCharacterHeight > c.PanelHeight-2*c.TextMargin:
		return fmt.Errorf("%w: 角色最小高度 %d 超出分格高度 %d 减去上下边距", ErrInvalidInput, c.MinCharacterHeight, c.PanelHeight)
	case c.LineSpacing < 0:
		return fmt.Errorf("%w: 行间距不能为负数: %d", ErrInvalidInput, c.LineSpacing)
	case c.CharacterWidth() <= 0:
		return fmt.Errorf("%w: 边距 %d 对于宽度 %d 过大", ErrInvalidInput, c.TextMargin, c.PanelWidth)
	}
	return nil
}

// Typesetter 提供单行文本宽度与行高的测量，由渲染器实现。
type Typesetter interface {
	TextWidth(text string, font FontResource) (float64, error)
	LineHeight(font FontResource) (float64, error)
}

// ImageMeasurer 返回角色图片的原始像素尺寸，由渲染器实现。
type ImageMeasurer interface {
	ImageSize(handle string) (width, height int, err error)
}

// MeasureFunc 返回单行文本的像素宽度。
type MeasureFunc func(text string) float64
