package layout

import (
	"errors"
	"fmt"
)

// Build 先把消息切分为分镜，再计算每一格的文本与角色坐标。
func Build(messages []Message, opts BuildOptions) (*Result, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: 消息列表为空", ErrInvalidInput)
	}
	for i, msg := range messages {
		if msg.AuthorID == "" {
			return nil, fmt.Errorf("%w: 第 %d 条消息缺少作者", ErrInvalidInput, i+1)
		}
	}
	if err := checkOptions(opts); err != nil {
		return nil, err
	}

	m := newTextMeasurer(opts)
	comic := Segment(messages, func(text string) int {
		return LineCount(m.wrap(text))
	}, opts.Config.MaxLinesBeforeSplit)
	if m.err != nil {
		return nil, m.err
	}
	return BuildComic(comic, opts)
}

// BuildComic 为已经切分好的分镜计算坐标。画布高度为 分格高度 × 分格数。
func BuildComic(comic Comic, opts BuildOptions) (*Result, error) {
	if len(comic.Panels) == 0 {
		return nil, fmt.Errorf("%w: 分镜为空", ErrInvalidInput)
	}
	if err := checkOptions(opts); err != nil {
		return nil, err
	}
	if err := checkAssignments(comic, opts.Resources.Characters); err != nil {
		return nil, err
	}

	m := newTextMeasurer(opts)
	cfg := opts.Config
	panels := make([]PanelBox, 0, len(comic.Panels))
	for i, p := range comic.Panels {
		box, err := buildPanel(i, p, cfg, m, opts)
		if err != nil {
			return nil, fmt.Errorf("第 %d 格布局失败: %w", i+1, err)
		}
		panels = append(panels, box)
	}

	return &Result{
		Width:     cfg.PanelWidth,
		Height:    cfg.PanelHeight * len(panels),
		Panels:    panels,
		Resources: opts.Resources,
		Meta:      opts.Meta,
	}, nil
}

func checkOptions(opts BuildOptions) error {
	if opts.Typesetter == nil {
		return fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	if opts.Images == nil {
		return fmt.Errorf("layout: 缺少图片尺寸来源 ImageMeasurer")
	}
	return opts.Config.Validate()
}

// checkAssignments 确保每个需要绘制的发言者都分配了角色。
func checkAssignments(comic Comic, characters map[string]string) error {
	for i, p := range comic.Panels {
		if p.Left.Blank() {
			return fmt.Errorf("%w: 第 %d 格左侧为空", ErrInvalidInput, i+1)
		}
		for _, s := range p.Slots() {
			if s.AuthorID == "" {
				return fmt.Errorf("%w: 第 %d 格有发言缺少作者", ErrInvalidInput, i+1)
			}
			if !s.Drawable() {
				continue
			}
			if characters[s.AuthorID] == "" {
				return fmt.Errorf("%w: 作者 %s 没有分配角色", ErrInvalidInput, s.AuthorID)
			}
		}
	}
	return nil
}

func buildPanel(index int, p Panel, cfg Config, m *textMeasurer, opts BuildOptions) (PanelBox, error) {
	margin := cfg.TextMargin
	top := index * cfg.PanelHeight
	bottom := top + cfg.PanelHeight
	box := PanelBox{
		Index:  index,
		Y:      top,
		Width:  cfg.PanelWidth,
		Height: cfg.PanelHeight,
		Panel:  p,
	}

	var left, right TextBox
	if p.Left.Drawable() {
		left = m.textBox(p.Left.Text)
	}
	hasRight := p.Right != nil && p.Right.Drawable()
	if hasRight {
		right = m.textBox(p.Right.Text)
	}
	if m.err != nil {
		return box, m.err
	}

	// 角色高度取左右文本块下方剩余的空间，但不低于最小高度。
	charHeight := cfg.PanelHeight - (left.Height + 2*margin) - 2*margin - right.Height
	if charHeight < cfg.MinCharacterHeight {
		charHeight = cfg.MinCharacterHeight
	}
	charWidth := cfg.CharacterWidth()

	if p.Left.Drawable() {
		img, err := thumbnailBox(opts, p.Left.AuthorID, charWidth, charHeight)
		if err != nil {
			return box, err
		}
		img.X = margin
		img.Y = bottom - img.Height
		left.X = margin
		left.Y = top + margin
		box.Left = &SlotBox{AuthorID: p.Left.AuthorID, Text: left, Character: img}
	}

	if !hasRight {
		return box, nil
	}

	img, err := thumbnailBox(opts, p.Right.AuthorID, charWidth, charHeight)
	if err != nil {
		return box, err
	}
	img.X = cfg.PanelWidth - (margin + img.Width)
	img.Y = bottom - img.Height
	img.Mirror = true
	right.X = cfg.PanelWidth - (right.Width + margin)
	right.Y = top + margin + left.Height + margin
	box.Right = &SlotBox{AuthorID: p.Right.AuthorID, Text: right, Character: img}
	box.Lines = append(box.Lines, Line{
		X1:    0,
		Y1:    bottom - 1,
		X2:    cfg.PanelWidth,
		Y2:    bottom - 1,
		Color: Black,
		Width: DefaultSeparatorWidth,
	})
	return box, nil
}

func thumbnailBox(opts BuildOptions, authorID string, maxW, maxH int) (ImageBox, error) {
	handle := opts.Resources.Characters[authorID]
	w, h, err := opts.Images.ImageSize(handle)
	if err != nil {
		return ImageBox{}, assetError(fmt.Errorf("读取角色 %s 尺寸失败: %w", handle, err))
	}
	if w <= 0 || h <= 0 {
		return ImageBox{}, fmt.Errorf("%w: 角色 %s 尺寸为 %dx%d", ErrMeasurement, handle, w, h)
	}
	tw, th := Thumbnail(w, h, maxW, maxH)
	return ImageBox{Path: handle, Width: tw, Height: th}, nil
}

// textMeasurer 包装 Typesetter，记录第一次测量错误，之后的测量直接返回 0。
type textMeasurer struct {
	ts       Typesetter
	font     FontResource
	column   float64
	lineGap  int
	lineH    int
	lineDone bool
	err      error
}

func newTextMeasurer(opts BuildOptions) *textMeasurer {
	return &textMeasurer{
		ts:      opts.Typesetter,
		font:    opts.Resources.Font,
		column:  float64(opts.Config.TextColumnWidth),
		lineGap: opts.Config.LineSpacing,
	}
}

func (m *textMeasurer) fail(err error) {
	if m.err == nil {
		m.err = assetError(err)
	}
}

func (m *textMeasurer) width(text string) float64 {
	if m.err != nil {
		return 0
	}
	w, err := m.ts.TextWidth(text, m.font)
	if err == nil {
		err = validMeasure(w)
	}
	if err != nil {
		m.fail(err)
		return 0
	}
	return w
}

func (m *textMeasurer) lineHeight() int {
	if m.lineDone || m.err != nil {
		return m.lineH
	}
	h, err := m.ts.LineHeight(m.font)
	if err == nil {
		err = validMeasure(h)
	}
	if err != nil {
		m.fail(err)
		return 0
	}
	m.lineH = ceilPx(h)
	m.lineDone = true
	return m.lineH
}

func (m *textMeasurer) wrap(text string) string {
	return Wrap(text, m.width, m.column)
}

// textBox 折行并计算文本块的宽高：行数 × 行高 + (行数-1) × 行间距。
func (m *textMeasurer) textBox(text string) TextBox {
	wrapped := m.wrap(text)
	tb := TextBox{Content: wrapped, Color: White, LineGap: m.lineGap}
	if wrapped == "" {
		return tb
	}
	tb.Lines = splitLines(wrapped)
	tb.LineHeight = m.lineHeight()
	for _, line := range tb.Lines {
		if w := ceilPx(m.width(line)); w > tb.Width {
			tb.Width = w
		}
	}
	n := len(tb.Lines)
	tb.Height = n*tb.LineHeight + (n-1)*m.lineGap
	return tb
}

func assetError(err error) error {
	if errors.Is(err, ErrAssetUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAssetUnavailable, err)
}
