// Command goudsim runs the engine core headless: it preloads the configured
// asset manifest, spawns a field of colliding bodies and steps the world at a
// fixed tick rate, logging broad-phase and contact statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edwinsyarief/goudcore/asset"
	"github.com/edwinsyarief/goudcore/asset/manifest"
	"github.com/edwinsyarief/goudcore/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if p := os.Getenv("GOUDSIM_CONFIG"); p != "" {
		var err error
		if cfg, err = config.Load(p); err != nil {
			return eris.Wrap(err, "load config")
		}
	}

	log, err := cfg.Logging.Build()
	if err != nil {
		return eris.Wrap(err, "init logger")
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := asset.NewStore(asset.WithLogger(log))
	if cfg.Assets.Manifest != "" {
		if err := preload(ctx, log, store, cfg.Assets); err != nil {
			return err
		}
	}

	sim := newSimulation(cfg, store, log)
	return sim.run(ctx)
}

func preload(ctx context.Context, log *zap.Logger, store *asset.Store, cfg config.AssetsConfig) error {
	fsys := os.DirFS(cfg.Root)
	m, err := manifest.LoadFile(fsys, cfg.Manifest)
	if err != nil {
		return eris.Wrap(err, "load manifest")
	}
	rep, err := manifest.Preload(ctx, store, asset.DefaultLoaders(), fsys, m,
		manifest.WithLogger(log),
		manifest.WithConcurrency(cfg.ReadConcurrency))
	if err != nil {
		return err
	}
	if len(rep.Failed) > 0 {
		log.Warn("running with missing assets", zap.Strings("paths", rep.Failed))
	}
	return nil
}
