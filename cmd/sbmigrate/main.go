package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"storyblok-migrate/internal/config"
	"storyblok-migrate/internal/download"
	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/importer"
	"storyblok-migrate/internal/infra/logx"
	"storyblok-migrate/internal/sanity"
	"storyblok-migrate/internal/sb"
	"storyblok-migrate/internal/snapshot"
	"storyblok-migrate/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("config:", err)
		os.Exit(1)
	}
	logx.RegisterSecrets([]string{cfg.SourceToken, cfg.SanityToken})

	// Enable debug logging when DEBUG environment variable is set
	if len(os.Getenv("DEBUG")) > 0 {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
		logx.SetOutput(f)
		logx.SetMinLevel(logx.LevelDebug)
		fmt.Println("Debug logging enabled. Run 'tail -f debug.log' to view logs.")
	}

	store, err := snapshot.NewStore(cfg.MigrationDir)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	ids := idmap.New(store.IDMapDir())
	src := sb.New(cfg.SourceToken, cfg.SpaceID, sb.WithDelay(cfg.SourceDelay))

	var dest *sanity.Client
	if cfg.ValidateImport() == nil {
		dest = sanity.New(cfg.SanityProjectID, cfg.SanityDataset, cfg.SanityToken, sanity.WithDelay(cfg.DestDelay))
	}

	engine := ui.Engine{
		ContentTypes: func() []string {
			var comps []sb.Component
			if ok, err := store.ReadIndex(snapshot.ResourceComponents, &comps); err != nil || !ok {
				return nil
			}
			names := make([]string, 0, len(comps))
			for _, c := range comps {
				names = append(names, c.Name)
			}
			return names
		},
		Download: func(ctx context.Context, resources []snapshot.Resource, mode snapshot.SyncMode, contentType string, progress download.ProgressFunc) error {
			opts := []download.Option{download.WithProgress(progress)}
			if contentType != "" {
				opts = append(opts, download.WithStoryFilters(sb.StoryListOpts{ContentType: contentType}))
			}
			return download.New(src, store, opts...).Run(ctx, resources, mode)
		},
		Import: func(ctx context.Context, mode importer.Mode) (map[string]*importer.Result, error) {
			if dest == nil {
				return nil, errors.New("destination not configured")
			}
			return importer.NewPipeline(store, ids, dest, src).Run(ctx, mode)
		},
	}

	if _, err := tea.NewProgram(
		ui.InitialModel(cfg, engine),
		tea.WithAltScreen(),
	).Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
