package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ByLCY/weeed/assets"
	"github.com/ByLCY/weeed/fonts"
)

var assetsCmd = &cobra.Command{
	Use:       "assets [background|font|char]",
	Short:     "List the backgrounds, fonts or characters in the data directory",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(assets.KindBackground), string(assets.KindFont), string(assets.KindCharacter)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := assets.Kinds
		if len(args) == 1 {
			kinds = []assets.Kind{assets.Kind(args[0])}
		}
		dir := assets.NewDir(cfg.Assets.Dir, cfg.Assets.CacheTTL)
		out := cmd.OutOrStdout()
		for _, kind := range kinds {
			names, err := dir.List(kind)
			if err != nil {
				logger.Warn("无法列出资源", "kind", kind, "error", err)
			}
			if kind == assets.KindFont {
				names = append(names, fonts.Names()...)
			}
			slices.Sort(names)
			fmt.Fprintf(out, "%s:\n", kind)
			for _, name := range names {
				fmt.Fprintf(out, "  %s\n", name)
			}
		}
		return nil
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(assetsCmd)
}
