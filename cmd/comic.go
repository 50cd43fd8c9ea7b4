package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/weeed/assets"
	"github.com/ByLCY/weeed/comic"
	"github.com/ByLCY/weeed/config"
	"github.com/ByLCY/weeed/history"
	"github.com/ByLCY/weeed/layout"
	"github.com/ByLCY/weeed/sanitize"
	"github.com/ByLCY/weeed/transcript"
)

var comicFlags struct {
	in      string
	db      string
	channel string
	before  string
	count   int
	out     string
	debug   string
	seed    uint64
}

var comicCmd = &cobra.Command{
	Use:   "comic",
	Short: "Render the last N messages as a comic strip",
	Long: `Render a comic from a transcript file (--in) or from the SQLite chat log
(--channel, optionally --before <message id> to end at that message).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := comicFlags.seed
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}
		req, err := loadRequest(cmd.Context())
		if err != nil {
			return err
		}
		req.Seed = seed
		return run(cmd.Context(), req, comicFlags.out, comicFlags.debug, cmd.OutOrStdout())
	},
}

// loadRequest 从 transcript 文件或聊天记录库读取消息。
func loadRequest(ctx context.Context) (comic.Request, error) {
	req := comic.Request{Settings: cfg.Settings}
	if comicFlags.in != "" {
		file, err := os.Open(comicFlags.in)
		if err != nil {
			return req, fmt.Errorf("无法打开 transcript 文件 %s: %w", comicFlags.in, err)
		}
		defer file.Close()
		doc, err := transcript.Parse(file)
		if err != nil {
			return req, fmt.Errorf("解析 transcript 失败: %w", err)
		}
		req.Messages = doc.Messages()
		if n := comicFlags.count; n > 0 && n < len(req.Messages) {
			req.Messages = req.Messages[len(req.Messages)-n:]
		}
		return req, nil
	}

	if comicFlags.channel == "" {
		return req, fmt.Errorf("%w: 需要 --in 或 --channel", layout.ErrInvalidInput)
	}
	// 先校验数量，避免无意义的查询。
	if err := cfg.Settings.ValidateCount(comicFlags.count); err != nil {
		return req, err
	}
	store, err := history.Open(dbPath(comicFlags.db))
	if err != nil {
		return req, err
	}
	defer store.Close()

	var recs []history.Record
	if comicFlags.before != "" {
		recs, err = store.Before(ctx, comicFlags.channel, comicFlags.before, comicFlags.count)
	} else {
		recs, err = store.Latest(ctx, comicFlags.channel, comicFlags.count)
	}
	if err != nil {
		return req, err
	}
	members := map[string]string{}
	for _, r := range recs {
		if r.AuthorName != "" {
			members[r.AuthorID] = r.AuthorName
		}
	}
	req.Messages = history.Messages(recs)
	req.Directory = sanitize.MapDirectory{Members: members}
	return req, nil
}

// run 串联生成、调试输出与写文件。
func run(ctx context.Context, req comic.Request, outputPath, debugPath string, stdout io.Writer) error {
	lib := assets.NewDir(cfg.Assets.Dir, cfg.Assets.CacheTTL)
	if err := checkAssets(lib, req.Settings); err != nil {
		return err
	}
	g, err := comic.NewGenerator(comic.Options{
		Library: lib,
		Render:  cfg.Render,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	out, err := g.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("生成漫画失败: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(out.Result, debugPath); err != nil {
			return err
		}
	}

	path := outputPath
	if path == "" || !strings.EqualFold(filepath.Ext(path), ".png") {
		path = filepath.Join(path, out.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, out.PNG, 0o644); err != nil {
		return fmt.Errorf("写入 PNG 文件失败: %w", err)
	}

	if out.Caption != "" {
		fmt.Fprintln(stdout, out.Caption)
	}
	fmt.Fprintln(stdout, path)
	return nil
}

// checkAssets 在生成前确认背景与字体存在，给出比渲染失败更直接的提示。
func checkAssets(lib *assets.Dir, settings config.Settings) error {
	for _, a := range []struct {
		kind assets.Kind
		name string
	}{
		{assets.KindBackground, settings.BackgroundImage},
		{assets.KindFont, settings.Font},
	} {
		ok, err := lib.Has(a.kind, a.name)
		if err != nil {
			return fmt.Errorf("%w: %w", layout.ErrAssetUnavailable, err)
		}
		if !ok {
			return fmt.Errorf("%w: 找不到 %s 文件 %q", layout.ErrAssetUnavailable, a.kind, a.name)
		}
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Database
}

//nolint:gochecknoinits
func init() {
	f := comicCmd.Flags()
	f.StringVar(&comicFlags.in, "in", "", "transcript file to read messages from")
	f.StringVar(&comicFlags.db, "db", "", "SQLite chat log (defaults to the configured database)")
	f.StringVar(&comicFlags.channel, "channel", "", "channel to read from the chat log")
	f.StringVar(&comicFlags.before, "before", "", "message id the comic ends with")
	f.IntVarP(&comicFlags.count, "count", "n", 0, "number of messages (chat log: required; transcript: last N)")
	f.StringVarP(&comicFlags.out, "out", "o", "", "output PNG path or directory")
	f.StringVar(&comicFlags.debug, "debug", "", "write the layout as JSON to this path")
	f.Uint64Var(&comicFlags.seed, "seed", 0, "seed for character assignment (random when unset)")
	comicCmd.MarkFlagsMutuallyExclusive("in", "channel")
	rootCmd.AddCommand(comicCmd)
}
