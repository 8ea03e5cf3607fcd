package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anxkit/anx-sync/config"
	"github.com/anxkit/anx-sync/engine"
	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/model"
	"github.com/anxkit/anx-sync/store/db"
	"github.com/anxkit/anx-sync/util/parsers/epub"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const greetingBanner = `
 █████  ███    ██ ██   ██       ███████ ██    ██ ███    ██  ██████
██   ██ ████   ██  ██ ██        ██       ██  ██  ████   ██ ██
███████ ██ ██  ██   ███   █████ ███████   ████   ██ ██  ██ ██
██   ██ ██  ██ ██  ██ ██             ██    ██    ██  ██ ██ ██
██   ██ ██   ████ ██   ██       ███████    ██    ██      ████ ██████`

var (
	configFile string
	deviceRoot string
	hardDelete bool

	rootCmd = &cobra.Command{
		Use:   "anx-sync",
		Short: "anx-sync manages e-books on an ANX reader device folder",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.GetConfig(); err != nil {
				return err
			}
			if configFile != "" {
				if _, err := config.ParseFile(configFile); err != nil {
					return err
				}
			}
			if deviceRoot != "" {
				config.Opts.DeviceRoot = deviceRoot
			}
			log.Logger = log.NewLogger(config.Opts)
			return nil
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a fresh device tree at the configured root",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := config.Opts.DeviceRoot
			if root == "" {
				return fmt.Errorf("device root is required, pass --root or set device_root")
			}
			for _, dir := range []string{db.FileDir, db.CoverDir} {
				if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
					return err
				}
			}

			d, err := db.NewDB(filepath.Join(root, config.Opts.DatabaseName))
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.EnsureSchema(context.Background()); err != nil {
				return err
			}

			fmt.Println(greetingBanner)
			fmt.Println("Initialized device tree at", root)
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the active books on the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			entries := e.ListActive()
			for _, entry := range entries {
				cover := " "
				if entry.HasCover {
					cover = "*"
				}
				fmt.Printf("%-10s %s %-45.45s %-25.25s %8d\n",
					entry.ID, cover, entry.Title, entry.Author, entry.Size)
			}
			free, total, _ := e.FreeSpace()
			fmt.Printf("%d books, %s free of %s\n", len(entries), humanBytes(free), humanBytes(total))
			return nil
		},
	}

	addCmd = &cobra.Command{
		Use:   "add <file>...",
		Short: "Copy books onto the device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			items := make([]engine.BatchItem, 0, len(args))
			for _, src := range args {
				items = append(items, engine.BatchItem{SourcePath: src, Meta: probeMetadata(src)})
			}

			bar := progressbar.NewOptions(len(items),
				progressbar.OptionSetDescription("Sending books"),
				progressbar.OptionClearOnFinish(),
			)
			e.SetProgress(func(done, total int, msg string) {
				bar.Set(done)
			})

			res := e.AddBatch(items)
			bar.Finish()
			return reportBatch(res)
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete books from the device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			var res *engine.BatchResult
			if hardDelete {
				res = e.HardDelete(args)
			} else {
				res = e.Delete(args)
			}
			return reportBatch(res)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().StringVarP(&deviceRoot, "root", "r", "", "device root directory")
	deleteCmd.Flags().BoolVar(&hardDelete, "purge", false, "remove rows outright instead of soft-deleting (legacy)")
	rootCmd.AddCommand(initCmd, listCmd, addCmd, deleteCmd)
}

func newEngine() (*engine.Engine, error) {
	e, err := engine.New(config.Opts)
	if err != nil {
		return nil, err
	}
	if err := e.Load(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// probeMetadata pulls title, author and cover out of an epub. Other formats
// fall back to filename-derived metadata inside the engine.
func probeMetadata(src string) *model.Metadata {
	if !strings.EqualFold(filepath.Ext(src), ".epub") {
		return &model.Metadata{}
	}
	b, err := epub.Open(src)
	if err != nil {
		log.Warn("Could not parse epub metadata", zap.String("source", src), zap.Error(err))
		return &model.Metadata{}
	}
	defer b.Close()

	meta := &model.Metadata{
		Title:       b.GetTitle(),
		Description: b.GetDescription(),
		CoverBytes:  b.GetCoverBytes(),
	}
	if author := b.GetAuthor(); author != "" {
		meta.Authors = []string{author}
	}
	return meta
}

func reportBatch(res *engine.BatchResult) error {
	for _, id := range res.Succeeded {
		fmt.Println("ok", id)
	}
	for _, item := range res.Failed {
		name := item.ID
		if name == "" {
			name = item.Source
		}
		fmt.Fprintln(os.Stderr, "failed", name+":", item.Err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d items failed", len(res.Failed), len(res.Failed)+len(res.Succeeded))
	}
	return nil
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func main() {
	defer log.Logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		log.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
