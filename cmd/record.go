package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ByLCY/weeed/history"
	"github.com/ByLCY/weeed/transcript"
)

var recordFlags struct {
	in      string
	db      string
	channel string
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append the messages of a transcript file to the SQLite chat log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(recordFlags.in)
		if err != nil {
			return fmt.Errorf("无法打开 transcript 文件 %s: %w", recordFlags.in, err)
		}
		defer file.Close()
		doc, err := transcript.Parse(file)
		if err != nil {
			return fmt.Errorf("解析 transcript 失败: %w", err)
		}

		store, err := history.Open(dbPath(recordFlags.db))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		now := time.Now()
		for i, e := range doc.Entries {
			rec := history.Record{
				ID:         uuid.NewString(),
				Channel:    recordFlags.channel,
				AuthorID:   e.AuthorID(),
				AuthorName: e.AuthorID(),
				Text:       e.Text(),
				Ts:         now.Add(time.Duration(i) * time.Millisecond),
			}
			if err := store.Append(ctx, rec); err != nil {
				return err
			}
			logger.Debug("recorded message", "id", rec.ID, "author", rec.AuthorID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %d messages in %s\n", len(doc.Entries), recordFlags.channel)
		return nil
	},
}

//nolint:gochecknoinits
func init() {
	f := recordCmd.Flags()
	f.StringVar(&recordFlags.in, "in", "", "transcript file")
	f.StringVar(&recordFlags.db, "db", "", "SQLite chat log (defaults to the configured database)")
	f.StringVar(&recordFlags.channel, "channel", "", "channel the messages belong to")
	_ = recordCmd.MarkFlagRequired("in")
	_ = recordCmd.MarkFlagRequired("channel")
	rootCmd.AddCommand(recordCmd)
}
