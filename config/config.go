// Package config 定义 weeed 的运行配置：每个服务器的漫画设置、分格几何、资源目录与日志级别。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/ByLCY/weeed/layout"
)

const (
	EnvPrefix = "WEEED"

	DefaultMaxMessages     = 10
	MaxMessagesLimit       = 80
	DefaultBackgroundImage = "beach-paradise-beach-desktop.jpg"
	DefaultFont            = "ComicBD.ttf"
	DefaultAssetsDir       = "data"
	DefaultDatabase        = "weeed.sqlite3"
	DefaultCacheTTL        = 30 * time.Minute
	DefaultLogLevel        = slog.LevelInfo
)

var (
	// ErrTooMany 表示请求的消息数超过 max_messages。
	ErrTooMany = errors.New("too many messages requested")
	// ErrTooFew 表示请求的消息数小于 1。
	ErrTooFew = errors.New("message count must be at least 1")
)

// Config 是完整的运行配置。
type Config struct {
	LogLevel *slog.LevelVar `mapstructure:"log_level"`
	Database string         `mapstructure:"database"`
	Assets   Assets         `mapstructure:"assets"`
	Render   Render         `mapstructure:"render"`
	Settings Settings       `mapstructure:"settings"`
}

// Settings 是每个服务器可调的漫画选项。
type Settings struct {
	MaxMessages     int    `mapstructure:"max_messages"`
	BackgroundImage string `mapstructure:"background_image"`
	ComicText       string `mapstructure:"comic_text"` // 为空则不附带文字
	Font            string `mapstructure:"font"`
}

// Render 是分格几何与字号。
type Render struct {
	layout.Config `mapstructure:",squash"`
	FontSize      float64 `mapstructure:"font_size"`
}

// Assets 描述资源目录。
type Assets struct {
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Default 返回默认配置。
func Default() *Config {
	level := &slog.LevelVar{}
	level.Set(DefaultLogLevel)
	return &Config{
		LogLevel: level,
		Database: DefaultDatabase,
		Assets:   Assets{Dir: DefaultAssetsDir, CacheTTL: DefaultCacheTTL},
		Render:   DefaultRender(),
		Settings: DefaultSettings(),
	}
}

// DefaultSettings 返回新服务器的默认设置。
func DefaultSettings() Settings {
	return Settings{
		MaxMessages:     DefaultMaxMessages,
		BackgroundImage: DefaultBackgroundImage,
		Font:            DefaultFont,
	}
}

func DefaultRender() Render {
	return Render{Config: layout.DefaultConfig(), FontSize: layout.DefaultFontSize}
}

// Validate 检查整个配置。
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("%w: assets.dir 不能为空", layout.ErrInvalidInput)
	}
	return nil
}

// Validate 检查服务器设置。
func (s Settings) Validate() error {
	switch {
	case s.MaxMessages < 1:
		return fmt.Errorf("%w: max_messages 太小: %d", layout.ErrInvalidInput, s.MaxMessages)
	case s.MaxMessages > MaxMessagesLimit:
		return fmt.Errorf("%w: max_messages 超过 %d 会导致图片过大: %d", layout.ErrInvalidInput, MaxMessagesLimit, s.MaxMessages)
	case s.BackgroundImage == "":
		return fmt.Errorf("%w: background_image 不能为空", layout.ErrInvalidInput)
	case s.Font == "":
		return fmt.Errorf("%w: font 不能为空", layout.ErrInvalidInput)
	}
	return nil
}

// ValidateCount 检查一次请求的消息数是否在 1..MaxMessages 之间。
func (s Settings) ValidateCount(count int) error {
	if count > s.MaxMessages {
		return fmt.Errorf("%w: %w: %d > %d", layout.ErrInvalidInput, ErrTooMany, count, s.MaxMessages)
	}
	if count < 1 {
		return fmt.Errorf("%w: %w: %d", layout.ErrInvalidInput, ErrTooFew, count)
	}
	return nil
}

func (r Render) Validate() error {
	if r.FontSize <= 0 {
		return fmt.Errorf("%w: font_size 必须为正数: %v", layout.ErrInvalidInput, r.FontSize)
	}
	return r.Config.Validate()
}

// SetDefaults 把默认值登记到 v，使环境变量与配置文件可以覆盖它们。
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", DefaultLogLevel.String())
	v.SetDefault("database", d.Database)

	v.SetDefault("assets.dir", d.Assets.Dir)
	v.SetDefault("assets.cache_ttl", d.Assets.CacheTTL)

	v.SetDefault("settings.max_messages", d.Settings.MaxMessages)
	v.SetDefault("settings.background_image", d.Settings.BackgroundImage)
	v.SetDefault("settings.comic_text", "")
	v.SetDefault("settings.font", d.Settings.Font)

	v.SetDefault("render.panel_width", d.Render.PanelWidth)
	v.SetDefault("render.panel_height", d.Render.PanelHeight)
	v.SetDefault("render.text_column_width", d.Render.TextColumnWidth)
	v.SetDefault("render.text_margin", d.Render.TextMargin)
	v.SetDefault("render.min_character_height", d.Render.MinCharacterHeight)
	v.SetDefault("render.line_spacing", d.Render.LineSpacing)
	v.SetDefault("render.max_lines_before_split", d.Render.MaxLinesBeforeSplit)
	v.SetDefault("render.font_size", d.Render.FontSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load 从 v 解码并校验配置。
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	err := v.Unmarshal(
		cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				LevelVarHookFunc(),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LevelVarHookFunc 把 "DEBUG"、"info" 之类的字符串解码为 *slog.LevelVar。
func LevelVarHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Ptr || t.Elem() != reflect.TypeOf(slog.LevelVar{}) {
			return data, nil
		}
		level := &slog.LevelVar{}
		if err := level.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, fmt.Errorf("无效的日志级别 %q: %w", data, err)
		}
		return level, nil
	}
}
