package comic

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/weeed/assets"
	"github.com/ByLCY/weeed/config"
	"github.com/ByLCY/weeed/layout"
	"github.com/ByLCY/weeed/sanitize"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// newLibrary 建立一个含一张背景和若干角色图的临时资源目录。
func newLibrary(t *testing.T, characters int) *assets.Dir {
	t.Helper()
	root := t.TempDir()
	for _, k := range assets.Kinds {
		require.NoError(t, os.MkdirAll(filepath.Join(root, string(k)), 0o755))
	}
	writePNG(t, filepath.Join(root, "background", "beach.png"), 450, 300, color.RGBA{B: 255, A: 255})
	for i := 0; i < characters; i++ {
		name := string(rune('a'+i)) + ".png"
		writePNG(t, filepath.Join(root, "char", name), 100+10*i, 400, color.RGBA{R: 255, A: 255})
	}
	return assets.NewDir(root, 0)
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.BackgroundImage = "beach.png"
	s.Font = "builtin:goregular"
	return s
}

func newTestGenerator(t *testing.T, lib Library) *Generator {
	t.Helper()
	g, err := NewGenerator(Options{
		Library: lib,
		Render:  config.DefaultRender(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return g
}

func conversation() []layout.Message {
	return []layout.Message{
		{AuthorID: "A", Text: "hello there"},
		{AuthorID: "B", Text: "hi A"},
		{AuthorID: "A", Text: "what's up"},
		{AuthorID: "A", Text: "anyone home?"},
	}
}

func TestGenerateConversation(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 3))
	settings := testSettings()
	settings.ComicText = "Whoa, here's a comic:"

	out, err := g.Generate(context.Background(), Request{
		Messages: conversation(),
		Settings: settings,
		Seed:     7,
	})
	require.NoError(t, err)

	require.Len(t, out.Result.Panels, 3)
	assert.Equal(t, 900, out.Result.Height)
	assert.Equal(t, "Whoa, here's a comic:", out.Caption)
	assert.True(t, strings.HasPrefix(out.Name, "comic-"))
	assert.True(t, strings.HasSuffix(out.Name, ".png"))

	cfg, err := png.DecodeConfig(bytes.NewReader(out.PNG))
	require.NoError(t, err)
	assert.Equal(t, 450, cfg.Width)
	assert.Equal(t, 900, cfg.Height)

	chars := out.Result.Resources.Characters
	require.Len(t, chars, 2)
	assert.NotEqual(t, chars["A"], chars["B"])

	p := out.Result.Panels
	assert.Equal(t, "A", p[0].Left.AuthorID)
	assert.Equal(t, "B", p[0].Right.AuthorID)
	assert.Nil(t, p[1].Right)
	assert.Equal(t, "anyone home?", p[2].Left.Text.Content)
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 5))
	req := Request{Messages: conversation(), Settings: testSettings(), Seed: 42}

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Result.Resources.Characters, second.Result.Resources.Characters)
	assert.Equal(t, first.PNG, second.PNG)
	assert.NotEqual(t, first.Name, second.Name)
}

func TestGenerateSanitizesText(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 2))
	out, err := g.Generate(context.Background(), Request{
		Messages: []layout.Message{{AuthorID: "A", Text: "<@!1> see <#2> <:blob:99>"}},
		Settings: testSettings(),
		Directory: sanitize.MapDirectory{
			Members:  map[string]string{"1": "alice"},
			Channels: map[string]string{"2": "general"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice see #general :blob:", out.Result.Panels[0].Left.Text.Content)
}

func TestGenerateRejectsCounts(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 2))
	settings := testSettings()
	settings.MaxMessages = 3

	_, err := g.Generate(context.Background(), Request{Messages: conversation(), Settings: settings})
	assert.ErrorIs(t, err, config.ErrTooMany)

	_, err = g.Generate(context.Background(), Request{Settings: settings})
	assert.ErrorIs(t, err, config.ErrTooFew)
}

func TestGenerateMissingAssets(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 2))

	settings := testSettings()
	settings.BackgroundImage = "missing.jpg"
	out, err := g.Generate(context.Background(), Request{Messages: conversation(), Settings: settings})
	assert.ErrorIs(t, err, layout.ErrAssetUnavailable)
	assert.Nil(t, out)

	settings = testSettings()
	settings.Font = "ComicBD.ttf"
	_, err = g.Generate(context.Background(), Request{Messages: conversation(), Settings: settings})
	assert.ErrorIs(t, err, layout.ErrAssetUnavailable)

	empty := newTestGenerator(t, newLibrary(t, 0))
	_, err = empty.Generate(context.Background(), Request{Messages: conversation(), Settings: testSettings()})
	assert.ErrorIs(t, err, layout.ErrInvalidInput)
}

func TestGenerateCanceled(t *testing.T) {
	g := newTestGenerator(t, newLibrary(t, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, Request{Messages: conversation(), Settings: testSettings()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGeneratorValidates(t *testing.T) {
	_, err := NewGenerator(Options{Render: config.DefaultRender()})
	assert.ErrorIs(t, err, layout.ErrInvalidInput)

	bad := config.DefaultRender()
	bad.PanelWidth = 0
	_, err = NewGenerator(Options{Library: newLibrary(t, 1), Render: bad})
	assert.ErrorIs(t, err, layout.ErrInvalidInput)
}
