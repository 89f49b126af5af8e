package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/loaders"
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/internal/services/history"
	"github.com/ternarybob/prism/internal/services/scene"
	"github.com/ternarybob/prism/internal/services/thumbnail"
	"github.com/ternarybob/prism/internal/services/viewer"
	"github.com/ternarybob/prism/internal/storage"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Prism version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("prism.toml"); err == nil {
			configFiles = append(configFiles, "prism.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	if err := run(flag.Args()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("expected a command: view <file> | history | history-clear")
	}

	ctx := context.Background()

	manager, err := storage.NewManager(logger, &config.Storage)
	if err != nil {
		return err
	}
	defer manager.Close()

	thumbs := thumbnail.NewGenerator(config.Thumbnail.Size, logger)
	hist := history.NewService(manager, thumbs, config.History.Capacity, logger)

	switch args[0] {
	case "view":
		if len(args) < 2 {
			return fmt.Errorf("usage: prism view <file>")
		}
		return runView(ctx, hist, args[1])
	case "history":
		return runHistory(ctx, hist)
	case "history-clear":
		return hist.Clear(ctx)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// runView loads a model file through the full pipeline and prints a summary.
func runView(ctx context.Context, hist *history.Service, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open model file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat model file: %w", err)
	}

	registry := loaders.NewRegistry(logger)
	normalizer := scene.NewNormalizer(config.Viewer.TargetSize, config.Viewer.Margin, logger)
	svc := viewer.NewService(registry, normalizer, hist, viewer.Options{
		MaxFileSize: config.Viewer.MaxFileSize,
		FOV:         config.Viewer.FOV,
	}, logger)

	var loadErr error
	svc.Load(ctx, filepath.Base(path), file, info.Size(), viewer.Callbacks{
		OnProgress: func(p models.LoadingProgress) {
			logger.Debug().Int("percent", int(p.Percentage)).Msg("Loading")
		},
		OnModelLoad: func(result viewer.Result) {
			fmt.Printf("Loaded %s (%s): %d triangles\n",
				result.Asset.Name, result.Asset.Format, result.Asset.TriangleCount())
			if result.Placement.Applied {
				fmt.Printf("Normalized scale %.4f, camera at %.2f %.2f %.2f\n",
					result.Placement.Scale,
					result.Pose.Position.X, result.Pose.Position.Y, result.Pose.Position.Z)
			}
			if result.Entry != nil {
				fmt.Printf("History entry: %s\n", result.Entry.ID)
			}
		},
		OnError: func(err error) {
			loadErr = err
		},
	})
	return loadErr
}

// runHistory prints the stored history, most recent first.
func runHistory(ctx context.Context, hist *history.Service) error {
	entries, err := hist.List(ctx)
	if err != nil {
		return err
	}
	stats, err := hist.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d entries, %d bytes, backend %s\n", stats.Entries, stats.TotalBytes, stats.Backend)
	for _, entry := range entries {
		fmt.Printf("%s  %-12s  %8d bytes  %s\n", entry.ID, entry.Format, entry.Size, entry.Name)
	}
	return nil
}
