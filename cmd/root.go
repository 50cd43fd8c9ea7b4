package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ByLCY/weeed/config"
)

var (
	v          = viper.New()
	cfg        = config.Default()
	configFile string
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "weeed [command]",
	Short:         "Turn a chat conversation into a comic strip",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = slog.New(
			tint.NewHandler(
				cmd.ErrOrStderr(), &tint.Options{
					Level:     cfg.LogLevel,
					AddSource: true,
				},
			),
		)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute 运行根命令，收到 SIGINT/SIGTERM 时取消 context。
func Execute() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
	)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// initConfig 读取 .env 与配置文件，并登记默认值和 WEEED_ 环境变量。
func initConfig() {
	v = viper.New()
	switch {
	case configFile == "":
		_ = godotenv.Load()
	case strings.EqualFold(filepath.Ext(configFile), ".env"):
		if err := godotenv.Load(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "无法读取 env 文件 %s: %v\n", configFile, err)
		}
	default:
		v.SetConfigFile(configFile)
	}

	config.SetDefaults(v)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "无法读取配置文件 %s: %v\n", configFile, err)
		}
	}
}

//nolint:gochecknoinits
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Config file (.env, .yaml, .toml or .json)",
	)
}
