// Package manifest preloads the assets listed in a YAML manifest into an
// asset.Store. File reads run concurrently; decoding and insertion happen on
// the caller's goroutine because the store is single-owner.
package manifest

import (
	"context"
	"io/fs"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/edwinsyarief/goudcore/asset"
)

// Entry is one asset to preload. An empty Kind is derived from the path's
// extension.
type Entry struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"`
}

// Manifest lists the assets to preload.
type Manifest struct {
	Assets []Entry `yaml:"assets"`
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "parse manifest")
	}
	for i, e := range m.Assets {
		if e.Path == "" {
			return nil, eris.Errorf("manifest entry %d has no path", i)
		}
	}
	return &m, nil
}

// LoadFile reads and parses the manifest at name in fsys.
func LoadFile(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, eris.Wrapf(err, "read manifest %s", name)
	}
	return Parse(data)
}

// Report summarises a Preload run.
type Report struct {
	Loaded  int      // newly decoded and stored
	Cached  int      // already present in the store
	Failed  []string // paths that could not be read or decoded
	Elapsed time.Duration
}

type options struct {
	log         *zap.Logger
	concurrency int
}

// Option configures Preload.
type Option func(*options)

// WithLogger sets the logger for per-asset messages.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithConcurrency bounds the number of files read at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

// Preload reads every entry of m from fsys and loads it into store. A file
// that cannot be read or decoded is recorded in the store as Failed and listed
// in the report; it does not stop the run. Preload only returns an error when
// ctx is cancelled.
func Preload(ctx context.Context, store *asset.Store, loaders *asset.Loaders, fsys fs.FS, m *Manifest, opts ...Option) (Report, error) {
	o := options{log: zap.NewNop(), concurrency: 8}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()
	var rep Report

	// Only read what the store does not already hold.
	pending := make([]int, 0, len(m.Assets))
	seen := make(map[string]struct{}, len(m.Assets))
	for i, e := range m.Assets {
		if _, dup := seen[e.Path]; dup {
			rep.Cached++
			continue
		}
		seen[e.Path] = struct{}{}
		if h, ok := store.GetByPath(e.Path); ok {
			if st, _ := store.State(h); st == asset.Loaded {
				rep.Cached++
				continue
			}
		}
		pending = append(pending, i)
	}

	results := make([]readResult, len(m.Assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, i := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, m.Assets[i].Path)
			results[i] = readResult{data: data, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, eris.Wrap(err, "preload cancelled")
	}

	for _, i := range pending {
		e := m.Assets[i]
		res := results[i]
		if res.err != nil {
			store.FailPath(e.Path, eris.Wrapf(res.err, "read %s", e.Path))
			rep.Failed = append(rep.Failed, e.Path)
			continue
		}
		h, err := store.Load(loaders, e.Kind, e.Path, res.data)
		if err != nil {
			if h.IsZero() {
				// no loader for the path: keep a failed record for the renderer to see
				store.FailPath(e.Path, err)
			}
			rep.Failed = append(rep.Failed, e.Path)
			continue
		}
		o.log.Debug("preloaded asset", zap.String("path", e.Path), zap.Int("bytes", len(res.data)))
		rep.Loaded++
	}
	rep.Elapsed = time.Since(start)
	o.log.Info("asset preload finished",
		zap.Int("loaded", rep.Loaded),
		zap.Int("cached", rep.Cached),
		zap.Int("failed", len(rep.Failed)),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}
