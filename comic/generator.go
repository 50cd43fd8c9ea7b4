// Package comic 把一次“生成漫画”请求串起来：校验数量、清洗文本、分配角色、布局并渲染。
package comic

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/ByLCY/weeed/assets"
	"github.com/ByLCY/weeed/config"
	"github.com/ByLCY/weeed/layout"
	"github.com/ByLCY/weeed/renderer"
	canvasrenderer "github.com/ByLCY/weeed/renderer/canvas"
	"github.com/ByLCY/weeed/sanitize"
)

// Library 是生成器需要的资源来源，*assets.Dir 实现了它。
type Library interface {
	renderer.AssetLoader
	List(kind assets.Kind) ([]string, error)
	Characters(ctx context.Context, names []string) (map[string]image.Image, error)
}

var _ Library = (*assets.Dir)(nil)

// Options 配置 Generator。
type Options struct {
	Library Library
	Render  config.Render
	Logger  *slog.Logger
}

// Generator 生成漫画图片。可以被多个 goroutine 同时使用。
type Generator struct {
	library  Library
	renderer *canvasrenderer.Renderer
	render   config.Render
	logger   *slog.Logger
}

// Request 是一次生成请求。Messages 按时间正序排列，文本尚未清洗。
type Request struct {
	Messages  []layout.Message
	Settings  config.Settings
	Seed      uint64
	Directory sanitize.Directory // 可为 nil，此时只替换自定义表情
}

// Output 是生成结果。
type Output struct {
	PNG     []byte
	Caption string
	Name    string
	Result  *layout.Result
}

// NewGenerator 创建生成器。
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Library == nil {
		return nil, fmt.Errorf("%w: 缺少资源目录", layout.ErrInvalidInput)
	}
	if err := opts.Render.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		library:  opts.Library,
		renderer: canvasrenderer.NewRenderer(opts.Library),
		render:   opts.Render,
		logger:   logger,
	}, nil
}

// Generate 渲染一张漫画。任何一步失败都不会返回部分结果。
func (g *Generator) Generate(ctx context.Context, req Request) (*Output, error) {
	if err := req.Settings.Validate(); err != nil {
		return nil, err
	}
	if err := req.Settings.ValidateCount(len(req.Messages)); err != nil {
		return nil, err
	}

	messages := make([]layout.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = layout.Message{
			AuthorID: m.AuthorID,
			Text:     sanitize.Text(m.Text, req.Directory),
			Position: i,
		}
	}

	characters, err := g.assign(ctx, messages, req.Seed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := layout.Build(messages, layout.BuildOptions{
		Typesetter: g.renderer,
		Images:     g.renderer,
		Config:     g.render.Config,
		Resources: layout.ResourceSet{
			Background: req.Settings.BackgroundImage,
			Font: layout.FontResource{
				Name: req.Settings.Font,
				Src:  req.Settings.Font,
				Size: g.render.FontSize,
			},
			Characters: characters,
		},
		Meta: layout.ComicMeta{Caption: req.Settings.ComicText},
	})
	if err != nil {
		return nil, err
	}
	if g.logger.Enabled(ctx, slog.LevelDebug) {
		if data, err := json.Marshal(layout.NewDebugDump(res).Comic); err == nil {
			g.logger.DebugContext(ctx, "comic data generated", "panels", len(res.Panels), "comic", string(data))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	png, err := g.renderer.Render(res)
	if err != nil {
		return nil, err
	}
	out := &Output{
		PNG:     png,
		Caption: req.Settings.ComicText,
		Name:    "comic-" + uuid.NewString() + ".png",
		Result:  res,
	}
	g.logger.InfoContext(ctx, "comic rendered",
		"messages", len(messages),
		"panels", len(res.Panels),
		"height", res.Height,
		"bytes", len(png),
	)
	return out, nil
}

// assign 为出场作者分配角色，并提前并发加载用到的角色图片。
func (g *Generator) assign(ctx context.Context, messages []layout.Message, seed uint64) (map[string]string, error) {
	pool, err := g.library.List(assets.KindCharacter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", layout.ErrAssetUnavailable, err)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	characters, err := layout.AssignCharacters(layout.UniqueAuthors(messages), pool, rng)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var names []string
	for _, h := range characters {
		if !seen[h] {
			seen[h] = true
			names = append(names, h)
		}
	}
	if _, err := g.library.Characters(ctx, names); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", layout.ErrAssetUnavailable, err)
	}
	return characters, nil
}
