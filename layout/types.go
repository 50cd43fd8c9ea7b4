package layout

// 该文件定义消息、分镜与布局结果，供分镜计算、渲染与调试 JSON 共用。

// Message 是一条已经清洗过的聊天消息（提及、频道、表情已替换为纯文本）。
type Message struct {
	AuthorID string `json:"authorId"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Slot 是一个发言位置。Filler 只由 Segment 在强制拆分时设置，表示补上的右侧空白位。
type Slot struct {
	AuthorID string `json:"authorId,omitempty"`
	Text     string `json:"text,omitempty"`
	Position int    `json:"position"`
	Filler   bool   `json:"blank,omitempty"`
}

// Blank 报告该位置是否为空白占位。
func (s Slot) Blank() bool { return s.Filler }

// Drawable 报告该位置是否需要绘制角色与文本。
func (s Slot) Drawable() bool { return !s.Blank() && s.Text != "" }

// Panel 是一格漫画：左侧必有发言，右侧可选。
type Panel struct {
	Left  Slot  `json:"left"`
	Right *Slot `json:"right,omitempty"`
}

// Slots 按左右顺序返回非空白的发言位置。
func (p Panel) Slots() []Slot {
	out := []Slot{p.Left}
	if p.Right != nil && !p.Right.Blank() {
		out = append(out, *p.Right)
	}
	return out
}

// Comic 是按时间顺序排列的分镜序列。
type Comic struct {
	Panels []Panel `json:"panels"`
}

// Messages 将分镜展开回消息序列，空白位被跳过。
func (c Comic) Messages() []Message {
	var out []Message
	for _, p := range c.Panels {
		for _, s := range p.Slots() {
			out = append(out, Message{AuthorID: s.AuthorID, Text: s.Text, Position: s.Position})
		}
	}
	return out
}

// Result 保存布局后的画布尺寸、每格几何信息与资源引用。
type Result struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Panels    []PanelBox  `json:"panels"`
	Resources ResourceSet `json:"resources"`
	Meta      ComicMeta   `json:"meta"`
}

// ResourceSet 记录本次渲染用到的背景、字体与角色图片句柄。
type ResourceSet struct {
	Background string            `json:"background"`
	Font       FontResource      `json:"font"`
	Characters map[string]string `json:"characters"` // authorID -> 角色图片句柄
}

// FontResource 描述字体资源。Src 可以是资源目录下的文件名或 builtin:* 形式。
type FontResource struct {
	Name string  `json:"name"`
	Src  string  `json:"src"`
	Size float64 `json:"size"` // 像素
}

// ComicMeta 保存与图片一起发送的附加信息。
type ComicMeta struct {
	Caption string `json:"caption,omitempty"`
}

// PanelBox 是一格的最终坐标（单位：像素，原点在整张图左上角）。
type PanelBox struct {
	Index  int      `json:"index"`
	Y      int      `json:"y"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Panel  Panel    `json:"panel"`
	Left   *SlotBox `json:"left,omitempty"`
	Right  *SlotBox `json:"right,omitempty"`
	Lines  []Line   `json:"lines,omitempty"`
}

// SlotBox 是一个发言位置排好的文本块与角色图。不需要绘制的位置为 nil。
type SlotBox struct {
	AuthorID  string   `json:"authorId"`
	Text      TextBox  `json:"text"`
	Character ImageBox `json:"character"`
}

// TextBox 表示一个已经折行并排好坐标的文本块。
type TextBox struct {
	Content    string   `json:"content"`
	Lines      []string `json:"lines"`
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	LineHeight int      `json:"lineHeight"`
	LineGap    int      `json:"lineGap"`
	Color      Color    `json:"color"`
}

// ImageBox 描述角色图片缩放后的位置与尺寸。
type ImageBox struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mirror bool   `json:"mirror,omitempty"`
}

// Line 表示一条线段。
type Line struct {
	X1    int   `json:"x1"`
	Y1    int   `json:"y1"`
	X2    int   `json:"x2"`
	Y2    int   `json:"y2"`
	Color Color `json:"color"`
	Width int   `json:"width"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)
