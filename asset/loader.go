package asset

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/edwinsyarief/goudcore/handle"
)

var (
	// ErrNoLoader is returned when no loader is registered for a kind or
	// extension.
	ErrNoLoader = eris.New("no loader registered")
	// ErrDecode wraps every error a loader returns.
	ErrDecode = eris.New("decode asset")
)

// LoaderFunc turns raw bytes into a payload. Loaders must not keep data after
// returning.
type LoaderFunc func(data []byte) (any, error)

// Loaders maps asset kinds to decoders, and file extensions to kinds.
type Loaders struct {
	byKind map[string]LoaderFunc
	byExt  map[string]string
}

// NewLoaders returns an empty registry.
func NewLoaders() *Loaders {
	return &Loaders{
		byKind: make(map[string]LoaderFunc),
		byExt:  make(map[string]string),
	}
}

// DefaultLoaders returns a registry with the built-in kinds: "bytes", "text",
// "yaml", "toml" and "msgpack".
func DefaultLoaders() *Loaders {
	l := NewLoaders()
	l.Register("bytes", BytesLoader, ".bin")
	l.Register("text", TextLoader, ".txt", ".glsl", ".vert", ".frag")
	l.Register("yaml", YAMLLoader, ".yaml", ".yml")
	l.Register("toml", TOMLLoader, ".toml")
	l.Register("msgpack", MsgpackLoader, ".msgpack", ".mpk")
	return l
}

// Register binds fn to kind and routes the given extensions to it. A later
// registration for the same kind or extension replaces the earlier one.
func (l *Loaders) Register(kind string, fn LoaderFunc, exts ...string) {
	l.byKind[kind] = fn
	for _, ext := range exts {
		l.byExt[normalizeExt(ext)] = kind
	}
}

// KindForPath returns the kind registered for the extension of path.
func (l *Loaders) KindForPath(path string) (string, bool) {
	kind, ok := l.byExt[normalizeExt(filepath.Ext(path))]
	return kind, ok
}

// Kinds returns the registered kinds in sorted order.
func (l *Loaders) Kinds() []string {
	out := make([]string, 0, len(l.byKind))
	for k := range l.byKind {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Decode runs the loader for kind over data.
func (l *Loaders) Decode(kind string, data []byte) (any, error) {
	fn, ok := l.byKind[kind]
	if !ok {
		return nil, eris.Wrapf(ErrNoLoader, "kind %q", kind)
	}
	v, err := fn(data)
	if err != nil {
		return nil, eris.Wrapf(ErrDecode, "kind %q: %v", kind, err)
	}
	return v, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// Load decodes data and stores it under path. The path index is consulted
// before decoding, so a path that is already loaded costs nothing. A record
// that is only reserved, or was left Failed or Unloaded, is filled in place.
// When kind is empty it is derived from the path's extension.
//
// On a decode failure with a non-empty path the record is kept in the Failed
// state and its handle is returned together with the error.
func (s *Store) Load(l *Loaders, kind, path string, data []byte) (handle.Handle, error) {
	var h handle.Handle
	if path != "" {
		if existing, ok := s.livePath(path); ok {
			switch s.records[existing.Index].state {
			case Failed, Unloaded, NotLoaded:
				h = existing
			default:
				return existing, nil
			}
		}
	}
	if kind == "" {
		k, ok := l.KindForPath(path)
		if !ok {
			return handle.Handle{}, eris.Wrapf(ErrNoLoader, "path %q", path)
		}
		kind = k
	}
	payload, err := l.Decode(kind, data)
	if err != nil {
		if path == "" {
			return handle.Handle{}, err
		}
		if h.IsZero() {
			return s.FailPath(path, err), err
		}
		s.mustSetFailed(h, err)
		return h, err
	}
	if h.IsZero() {
		h = s.InsertWithPath(path, payload)
	} else {
		s.mustSetLoaded(h, payload)
	}
	s.log.Debug("asset loaded", zap.String("kind", kind), zap.String("path", path), zap.Stringer("handle", h))
	return h, nil
}

// BytesLoader returns a private copy of the input.
func BytesLoader(data []byte) (any, error) {
	return bytes.Clone(data), nil
}

// TextLoader returns the input as a string.
func TextLoader(data []byte) (any, error) {
	return string(data), nil
}

// YAMLLoader decodes a YAML document into generic maps and slices.
func YAMLLoader(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// TOMLLoader decodes a TOML document into a map[string]any.
func TOMLLoader(data []byte) (any, error) {
	v := map[string]any{}
	if _, err := toml.Decode(string(data), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// MsgpackLoader decodes a MessagePack value into generic maps and slices.
func MsgpackLoader(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// YAMLInto returns a loader decoding YAML into a fresh *T.
func YAMLInto[T any]() LoaderFunc {
	return func(data []byte) (any, error) {
		v := new(T)
		if err := yaml.Unmarshal(data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// TOMLInto returns a loader decoding TOML into a fresh *T.
func TOMLInto[T any]() LoaderFunc {
	return func(data []byte) (any, error) {
		v := new(T)
		if _, err := toml.Decode(string(data), v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// MsgpackInto returns a loader decoding MessagePack into a fresh *T.
func MsgpackInto[T any]() LoaderFunc {
	return func(data []byte) (any, error) {
		v := new(T)
		if err := msgpack.Unmarshal(data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
