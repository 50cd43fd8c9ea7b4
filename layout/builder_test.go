package layout

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 默认每个字符 10 像素宽，行高 15 像素。
type stubTypesetter struct {
	width func(string) float64
}

func (s *stubTypesetter) TextWidth(text string, _ FontResource) (float64, error) {
	if s.width != nil {
		return s.width(text), nil
	}
	return runeWidth(text), nil
}

func (s *stubTypesetter) LineHeight(FontResource) (float64, error) { return 15, nil }

type stubImages map[string][2]int

func (s stubImages) ImageSize(handle string) (int, int, error) {
	size, ok := s[handle]
	if !ok {
		return 0, 0, errors.New("no such image: " + handle)
	}
	return size[0], size[1], nil
}

func buildOpts(characters map[string]string) BuildOptions {
	return BuildOptions{
		Typesetter: &stubTypesetter{},
		Images: stubImages{
			"tall.png":  {100, 400},
			"small.png": {50, 60},
		},
		Config: DefaultConfig(),
		Resources: ResourceSet{
			Background: "bg.png",
			Font:       FontResource{Name: "Body", Src: "builtin:goregular", Size: DefaultFontSize},
			Characters: characters,
		},
	}
}

// mustBuild 是测试辅助：布局失败时直接终止测试。
func mustBuild(t *testing.T, in []Message, opts BuildOptions) *Result {
	t.Helper()
	res, err := Build(in, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func TestBuildDimensions(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "tall.png", "B": "small.png"})
	cases := [][]Message{
		msgs("A", "hi"),
		msgs("A", "hi", "B", "hello"),
		msgs("A", "1", "A", "2", "A", "3", "B", "4", "A", "5"),
	}
	for _, in := range cases {
		res := mustBuild(t, in, opts)
		if res.Width != DefaultPanelWidth || res.Height != DefaultPanelHeight*len(res.Panels) {
			t.Fatalf("画布尺寸错误: %dx%d for %d panels", res.Width, res.Height, len(res.Panels))
		}
		for i, p := range res.Panels {
			if p.Y != i*DefaultPanelHeight {
				t.Fatalf("panel %d y = %d", i, p.Y)
			}
		}
	}
}

func TestBuildPairedPanelGeometry(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "tall.png", "B": "tall.png"})
	res := mustBuild(t, msgs("A", "hi", "B", "hello"), opts)
	if len(res.Panels) != 1 {
		t.Fatalf("expected 1 panel, got %d", len(res.Panels))
	}
	p := res.Panels[0]
	if p.Left == nil || p.Right == nil {
		t.Fatalf("两侧都应绘制: left=%v right=%v", p.Left, p.Right)
	}

	wantText := TextBox{
		Content: "hi", Lines: []string{"hi"},
		X: 10, Y: 10, Width: 20, Height: 15, LineHeight: 15, LineGap: 4, Color: White,
	}
	if !reflect.DeepEqual(p.Left.Text, wantText) {
		t.Fatalf("left text = %+v, want %+v", p.Left.Text, wantText)
	}
	// 300 - (15+20) - 20 - 15 = 230，宽度上限 450/2 - 20 = 205。
	if want := (ImageBox{Path: "tall.png", X: 10, Y: 70, Width: 58, Height: 230}); p.Left.Character != want {
		t.Fatalf("left character = %+v, want %+v", p.Left.Character, want)
	}

	if p.Right.Text.X != 390 || p.Right.Text.Y != 35 {
		t.Fatalf("right text at (%d,%d), want (390,35)", p.Right.Text.X, p.Right.Text.Y)
	}
	if want := (ImageBox{Path: "tall.png", X: 382, Y: 70, Width: 58, Height: 230, Mirror: true}); p.Right.Character != want {
		t.Fatalf("right character = %+v, want %+v", p.Right.Character, want)
	}

	if len(p.Lines) != 1 || p.Lines[0].Y1 != 299 || p.Lines[0].X2 != 450 {
		t.Fatalf("unexpected separator: %+v", p.Lines)
	}
}

func TestBuildSecondPanelOffsets(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png"})
	res := mustBuild(t, msgs("A", "one", "A", "two"), opts)
	if len(res.Panels) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(res.Panels))
	}

	second := res.Panels[1]
	if second.Left.Text.Y != 310 {
		t.Fatalf("second panel text y = %d, want 310", second.Left.Text.Y)
	}
	if want := (ImageBox{Path: "small.png", X: 10, Y: 600 - 60, Width: 50, Height: 60}); second.Left.Character != want {
		t.Fatalf("second character = %+v, want %+v", second.Left.Character, want)
	}
	if second.Right != nil || len(second.Lines) != 0 {
		t.Fatalf("末尾单人分格不应有右侧或分隔线")
	}

	// 强制补的空白右位不绘制任何东西。
	first := res.Panels[0]
	if first.Panel.Right == nil || !first.Panel.Right.Blank() {
		t.Fatalf("first panel should carry a blank filler: %+v", first.Panel.Right)
	}
	if first.Right != nil || len(first.Lines) != 0 {
		t.Fatalf("空白位不应绘制: right=%v lines=%v", first.Right, first.Lines)
	}
}

func TestBuildCharacterHeightFloor(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "tall.png"})
	long := strings.Repeat("word ", 120)
	p := mustBuild(t, msgs("A", long), opts).Panels[0]
	if p.Left.Text.Height <= 150 {
		t.Fatalf("text should be taller than 150, got %d", p.Left.Text.Height)
	}
	if p.Left.Character.Height != DefaultMinCharacterHeight {
		t.Fatalf("character height = %d, want %d", p.Left.Character.Height, DefaultMinCharacterHeight)
	}
}

func TestBuildTallMessageForcesSplit(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png", "B": "small.png"})
	long := strings.Repeat("lorem ipsum ", 20) // 远超 3 行
	res := mustBuild(t, msgs("A", long, "B", "short"), opts)
	if len(res.Panels) != 2 || res.Panels[0].Right != nil || res.Panels[1].Left.AuthorID != "B" {
		t.Fatalf("过高的消息应强制拆分: %+v", res.Panels)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png"})

	_, err := Build(nil, opts)
	wantErr(t, err, ErrInvalidInput)

	_, err = Build(msgs("A", "hi", "B", "unassigned"), opts)
	wantErr(t, err, ErrInvalidInput)

	_, err = BuildComic(Comic{}, opts)
	wantErr(t, err, ErrInvalidInput)

	bad := opts
	bad.Config.PanelHeight = 0
	_, err = Build(msgs("A", "hi"), bad)
	wantErr(t, err, ErrInvalidInput)
}

func TestBuildRejectsEmptyAuthor(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png"})

	res, err := Build([]Message{{AuthorID: "A", Text: "hi"}, {AuthorID: "", Text: "yo", Position: 1}}, opts)
	wantErr(t, err, ErrInvalidInput)
	if res != nil {
		t.Fatalf("失败时不应返回结果: %+v", res)
	}

	// 直接传入分镜时，作者为空的右侧发言同样要被拒绝，而不是当成空白位跳过。
	comic := Comic{Panels: []Panel{{
		Left:  Slot{AuthorID: "A", Text: "hi"},
		Right: &Slot{Text: "yo", Position: 1},
	}}}
	_, err = BuildComic(comic, opts)
	wantErr(t, err, ErrInvalidInput)
}

func TestConfigRejectsOversizedCharacterFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinCharacterHeight = 400
	wantErr(t, cfg.Validate(), ErrInvalidInput)

	cfg.MinCharacterHeight = cfg.PanelHeight - 2*cfg.TextMargin
	if err := cfg.Validate(); err != nil {
		t.Fatalf("恰好占满可用高度应被接受: %v", err)
	}
	cfg.MinCharacterHeight++
	wantErr(t, cfg.Validate(), ErrInvalidInput)
}

func TestBuildMissingCharacterImage(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "missing.png"})
	_, err := Build(msgs("A", "hi"), opts)
	wantErr(t, err, ErrAssetUnavailable)
}

func TestBuildRejectsBadMeasurement(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png"})
	opts.Typesetter = &stubTypesetter{width: func(string) float64 { return math.NaN() }}
	_, err := Build(msgs("A", "hi"), opts)
	wantErr(t, err, ErrMeasurement)
	wantErr(t, err, ErrAssetUnavailable)
}

func TestWriteDebugJSON(t *testing.T) {
	opts := buildOpts(map[string]string{"A": "small.png", "B": "small.png"})
	res := mustBuild(t, msgs("A", "hi", "A", "again", "B", "yo"), opts)

	path := filepath.Join(t.TempDir(), "comic.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("输出调试 JSON 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var dump DebugDump
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("解析调试 JSON 失败: %v", err)
	}

	want := []Panel{
		{Left: Slot{AuthorID: "A", Text: "hi", Position: 0}, Right: &Slot{Filler: true}},
		{Left: Slot{AuthorID: "A", Text: "again", Position: 1}, Right: &Slot{AuthorID: "B", Text: "yo", Position: 2}},
	}
	if !reflect.DeepEqual(dump.Comic.Panels, want) {
		t.Fatalf("comic data = %+v, want %+v", dump.Comic.Panels, want)
	}
	if dump.Layout == nil || dump.Layout.Height != 600 {
		t.Fatalf("layout missing or wrong height: %+v", dump.Layout)
	}

	wantErr(t, WriteDebugJSON(nil, path), ErrInvalidInput)
}
