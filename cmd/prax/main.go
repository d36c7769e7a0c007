package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"prax-go/internal/app"
	"prax-go/internal/model"
	"prax-go/internal/prax"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PraxApp. The caller must defer app.Close().
func newApp(ctx context.Context) (*app.PraxApp, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := paths.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPraxApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

var rootCmd = &cobra.Command{
	Use:          "prax",
	Short:        "Photo library mirror",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := paths.NewConfig(hostID)

		if err := paths.InitConfig(cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Host ID:  %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		fmt.Printf("Catalog:  %s\n", cfg.Source.CatalogPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := paths.ReadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigPath)
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Source:      %s %s\n", cfg.Source.Type, cfg.Source.CatalogPath)
		fmt.Printf("Defer links: %v\n", cfg.Import.DeferLinks)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		for i, v := range cfg.Vaults {
			mark := ""
			if v.Name == cfg.SnapshotVault || (cfg.SnapshotVault == "" && i == 0) {
				mark = " [snapshots]"
			}
			fmt.Printf("Vault:       %s (%s)%s\n", v.Name, v.Type, mark)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readNewPassphrase()
		if err != nil {
			return err
		}
		if err := a.SetupKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:       "import [folders|albums|assets|all]",
	Short:     "Mirror the photo library into the local store",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"folders", "albums", "assets", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		pass := "all"
		if len(args) > 0 {
			pass = args[0]
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var last string
		unsubscribe := a.Reporter().Subscribe(func(s prax.Status) {
			if s.Message != "" && s.Message != last {
				last = s.Message
				fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", s.ProgressA*100, s.Message)
			}
		})
		defer unsubscribe()

		results, err := a.Import(cmd.Context(), pass)
		a.Reporter().Sync()
		for _, r := range results {
			fmt.Printf("%-8s  run %s  records %d  skipped %d  linked %d  deferred %d\n",
				r.Pass, r.RunID, r.Records, r.Skipped, r.Linked, r.Deferred)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is mirrored",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Assets:         %d\n", st.Stats.Assets)
		fmt.Printf("Albums:         %d\n", st.Stats.Albums)
		fmt.Printf("Folders:        %d\n", st.Stats.Folders)
		fmt.Printf("Asset links:    %d\n", st.Stats.AssetAlbums)
		fmt.Printf("Deferred links: %d\n", st.Stats.DeferredLinks)
		fmt.Println()
		for _, pass := range []model.Pass{model.PassFolders, model.PassAlbums, model.PassAssets} {
			run, ok := st.LastCompleted[pass]
			if !ok {
				fmt.Printf("%-8s  never completed\n", pass)
				continue
			}
			fmt.Printf("%-8s  %s  %d record(s)\n", pass, formatTime(run.FinishedAt), run.Records)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View import run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No import runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-8s  %s  %-10s  %5d  %s\n",
				r.ID[:min(8, len(r.ID))],
				r.Pass,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.Records,
				duration,
			)
		}
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every mirrored record, keeping run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("reset deletes the mirror; pass --yes to confirm")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Store reset. Run `prax import` to rebuild it.")
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirrored records",
}

func sortFlags(cmd *cobra.Command) (string, bool) {
	column, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")
	return column, desc
}

var listAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List mirrored assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		column, desc := sortFlags(cmd)
		assets, err := a.ListAssets(cmd.Context(), column, desc)
		if err != nil {
			return err
		}
		for _, as := range assets {
			fmt.Printf("%-24s  %-7s  %s  albums:%d\n", as.Identifier, as.Kind, formatTime(as.CreatedAt), as.AlbumCount)
		}
		return nil
	},
}

var listAlbumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List mirrored albums",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		column, desc := sortFlags(cmd)
		albums, err := a.ListAlbums(cmd.Context(), column, desc)
		if err != nil {
			return err
		}
		for _, al := range albums {
			folder := al.FolderID
			if folder == "" {
				folder = "-"
			}
			fmt.Printf("%-24s  %-30s  %-11s  items:%-5d  folder:%s\n", al.Identifier, al.Title, al.Kind, al.ItemCount, folder)
		}
		return nil
	},
}

var listFoldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List mirrored folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		column, desc := sortFlags(cmd)
		folders, err := a.ListFolders(cmd.Context(), column, desc)
		if err != nil {
			return err
		}
		for _, f := range folders {
			fmt.Printf("%-24s  %-30s  %-12s  albums:%d\n", f.Identifier, f.Title, f.Kind, f.ChildCount)
		}
		return nil
	},
}

// collections command
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the albums a selection can name",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		cols, err := a.Collections(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range cols {
			fmt.Printf("%-24s  %-30s  %s\n", prax.CollectionSelection(c.ID).Token(), c.Title, c.Kind)
		}
		return nil
	},
}

// select command
var selectCmd = &cobra.Command{
	Use:   "select PAYLOAD",
	Short: "Resolve a selection such as \"album:ID,none\" to its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.Select(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No items selected.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%-24s  %-7s  %s\n", it.ID, it.Kind, formatTime(it.CreatedAt))
		}
		return nil
	},
}

// counts command
var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show item counts per album",
	RunE: func(cmd *cobra.Command, args []string) error {
		live, _ := cmd.Flags().GetBool("live")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.Counts(cmd.Context(), live, nil)
		if err != nil {
			return err
		}

		fmt.Printf("%-24s  %d\n", "all", counts.Total)
		fmt.Printf("%-24s  %d\n", prax.Unassigned().Token(), counts.Unassigned)
		for _, id := range slices.Sorted(maps.Keys(counts.PerAlbum)) {
			fmt.Printf("%-24s  %d\n", prax.CollectionSelection(id).Token(), counts.PerAlbum[id])
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Push or pull store snapshots",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the store to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.PushSnapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("snapshot push failed: %w", err)
		}
		fmt.Printf("Pushed snapshot version %d\n", version)
		return nil
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull DEST",
	Short: "Download the newest snapshot to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.PullSnapshot(cmd.Context(), args[0], func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return fmt.Errorf("snapshot pull failed: %w", err)
		}
		fmt.Printf("Snapshot written to %s\n", args[0])
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-import whenever the catalog file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(os.Stderr, "Watching catalog, press Ctrl-C to stop.")
		return a.Watch(ctx, func(results []*prax.PassResult, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "re-import failed: %v\n", err)
				return
			}
			parts := make([]string, 0, len(results))
			for _, r := range results {
				parts = append(parts, fmt.Sprintf("%s=%d", r.Pass, r.Records))
			}
			fmt.Printf("%s  re-imported %s\n", time.Now().Format("15:04:05"), strings.Join(parts, " "))
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	// list subcommands
	for _, c := range []*cobra.Command{listAssetsCmd, listAlbumsCmd, listFoldersCmd} {
		c.Flags().StringP("sort", "s", "identifier", "Column to sort by")
		c.Flags().BoolP("desc", "d", false, "Sort descending")
		listCmd.AddCommand(c)
	}

	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotPullCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("yes", false, "Confirm deleting the mirror")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(countsCmd)
	countsCmd.Flags().Bool("live", false, "Count from the library instead of the store")
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(watchCmd)
}
