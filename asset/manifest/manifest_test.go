package manifest

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/edwinsyarief/goudcore/asset"
)

const sample = `
assets:
  - path: config/game.toml
  - path: data/enemies.yaml
  - path: shaders/sprite.frag
    kind: text
  - path: missing/hero.png
    kind: bytes
  - path: data/broken.yaml
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"manifest.yaml":       {Data: []byte(sample)},
		"config/game.toml":    {Data: []byte("title = \"demo\"\n")},
		"data/enemies.yaml":   {Data: []byte("- slime\n- bat\n")},
		"shaders/sprite.frag": {Data: []byte("void main() {}")},
		"data/broken.yaml":    {Data: []byte("a: [")},
	}
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Assets) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(m.Assets))
	}
	if m.Assets[2].Kind != "text" {
		t.Errorf("kind not parsed: %+v", m.Assets[2])
	}
	if _, err := Parse([]byte("assets:\n  - kind: text\n")); err == nil {
		t.Error("expected error for entry without path")
	}
}

func TestPreload(t *testing.T) {
	fsys := testFS()
	m, err := LoadFile(fsys, "manifest.yaml")
	if err != nil {
		t.Fatal(err)
	}
	store := asset.NewStore()
	rep, err := Preload(context.Background(), store, asset.DefaultLoaders(), fsys, m, WithConcurrency(2))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Loaded != 3 {
		t.Errorf("expected 3 loaded, got %d", rep.Loaded)
	}
	if len(rep.Failed) != 2 {
		t.Errorf("expected 2 failures, got %v", rep.Failed)
	}

	h, ok := store.GetByPath("shaders/sprite.frag")
	if !ok {
		t.Fatal("shader not stored")
	}
	if src, _ := asset.As[string](store, h); src != "void main() {}" {
		t.Errorf("unexpected shader source %q", src)
	}
	h, _ = store.GetByPath("missing/hero.png")
	if st, _ := store.State(h); st != asset.Failed {
		t.Errorf("missing file should be failed, got %s", st)
	}

	// second run hits the path index for everything already loaded
	rep, err = Preload(context.Background(), store, asset.DefaultLoaders(), fsys, m)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Cached != 3 || rep.Loaded != 0 {
		t.Errorf("expected 3 cached, 0 loaded, got %+v", rep)
	}
}

func TestPreloadCancelled(t *testing.T) {
	fsys := testFS()
	m, _ := LoadFile(fsys, "manifest.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Preload(ctx, asset.NewStore(), asset.DefaultLoaders(), fsys, m); err == nil {
		t.Error("expected cancellation error")
	}
}
