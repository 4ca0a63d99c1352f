// Package asset stores decoded asset payloads behind generational handles,
// with an optional source-path index that deduplicates repeated loads.
//
// The store never performs I/O. Callers read bytes themselves and hand them to
// Insert, InsertWithPath or Load; decoding goes through a Loaders registry.
package asset

import (
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edwinsyarief/goudcore/handle"
)

var (
	// ErrUnknownAsset is returned for stale or never-issued asset handles.
	ErrUnknownAsset = eris.New("unknown asset")
	// ErrPathTaken is returned by SetPath when another live asset already owns
	// the path.
	ErrPathTaken = eris.New("asset path already in use")
)

// State is the lifecycle stage of an asset record.
type State uint8

const (
	NotLoaded State = iota // reserved, no payload yet
	Loading                // a loader is decoding the payload
	Loaded                 // payload present and usable
	Failed                 // the loader gave up; the error is kept
	Unloaded               // payload dropped, handle still live
)

// String returns the lower-case state name used in logs.
func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Unloaded:
		return "unloaded"
	}
	return "unknown"
}

type record struct {
	payload  any
	err      error
	path     string
	progress float32
	state    State
}

// Store holds asset records. It is not safe for concurrent use.
type Store struct {
	log     *zap.Logger
	handles *handle.Allocator
	records []record // indexed by Handle.Index
	paths   map[string]handle.Handle
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCapacity preallocates room for n records.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.handles = handle.NewAllocator(n)
		s.records = make([]record, 0, n)
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		log:     zap.NewNop(),
		handles: handle.NewAllocator(0),
		paths:   make(map[string]handle.Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) alloc(r record) handle.Handle {
	h, err := s.handles.Allocate()
	if err != nil {
		panic(err)
	}
	if int(h.Index) >= len(s.records) {
		s.records = append(s.records, make([]record, int(h.Index)+1-len(s.records))...)
	}
	s.records[h.Index] = r
	return h
}

// rec returns the record for h, or nil when h is stale.
func (s *Store) rec(h handle.Handle) *record {
	if !s.handles.IsValid(h) {
		return nil
	}
	return &s.records[h.Index]
}

// livePath returns the live handle owning path. A mapping left behind by a
// removed asset is dropped on the way.
func (s *Store) livePath(path string) (handle.Handle, bool) {
	h, ok := s.paths[path]
	if !ok {
		return handle.Handle{}, false
	}
	if !s.handles.IsValid(h) {
		delete(s.paths, path)
		return handle.Handle{}, false
	}
	return h, true
}

// Insert stores payload under a fresh handle with no path.
func (s *Store) Insert(payload any) handle.Handle {
	return s.alloc(record{payload: payload, state: Loaded})
}

// InsertWithPath stores payload under path. If path already belongs to a live
// asset, that asset's handle is returned and payload is discarded: the first
// insert wins. An empty path behaves like Insert.
func (s *Store) InsertWithPath(path string, payload any) handle.Handle {
	if path == "" {
		return s.Insert(payload)
	}
	if h, ok := s.livePath(path); ok {
		s.log.Debug("asset path already loaded", zap.String("path", path), zap.Stringer("handle", h))
		return h
	}
	h := s.alloc(record{payload: payload, path: path, state: Loaded})
	s.paths[path] = h
	return h
}

// Reserve allocates a handle for an asset that will be loaded later.
func (s *Store) Reserve() handle.Handle {
	return s.alloc(record{state: NotLoaded})
}

// ReserveWithPath is Reserve with path deduplication: a live asset already
// owning path is returned as is.
func (s *Store) ReserveWithPath(path string) handle.Handle {
	if path == "" {
		return s.Reserve()
	}
	if h, ok := s.livePath(path); ok {
		return h
	}
	h := s.alloc(record{path: path, state: NotLoaded})
	s.paths[path] = h
	return h
}

// Get returns the payload of h. It reports false for stale handles and for
// records that hold no payload (reserved, failed or unloaded).
func (s *Store) Get(h handle.Handle) (any, bool) {
	r := s.rec(h)
	if r == nil || r.state != Loaded {
		return nil, false
	}
	return r.payload, true
}

// Set replaces the payload of h and marks it loaded. Payloads stored as
// pointers can also be mutated in place through Get.
func (s *Store) Set(h handle.Handle, payload any) error {
	return s.SetLoaded(h, payload)
}

// IsAlive reports whether h refers to a record in this store.
func (s *Store) IsAlive(h handle.Handle) bool {
	return s.handles.IsValid(h)
}

// Remove deletes the record for h together with its path mapping and returns
// the payload it held.
func (s *Store) Remove(h handle.Handle) (any, error) {
	r := s.rec(h)
	if r == nil {
		return nil, eris.Wrapf(ErrUnknownAsset, "remove %s", h)
	}
	payload := r.payload
	if r.path != "" {
		delete(s.paths, r.path)
	}
	*r = record{}
	if err := s.handles.Deallocate(h); err != nil {
		panic("asset: allocator out of sync: " + err.Error())
	}
	return payload, nil
}

// GetByPath returns the live handle registered for path.
func (s *Store) GetByPath(path string) (handle.Handle, bool) {
	return s.livePath(path)
}

// SetLoading marks h as in flight with a progress in [0, 1].
func (s *Store) SetLoading(h handle.Handle, progress float32) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "set loading %s", h)
	}
	r.state = Loading
	r.progress = min(max(progress, 0), 1)
	return nil
}

// SetLoaded stores payload for h and marks it loaded.
func (s *Store) SetLoaded(h handle.Handle, payload any) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "set loaded %s", h)
	}
	r.payload = payload
	r.err = nil
	r.progress = 1
	r.state = Loaded
	return nil
}

// SetFailed records why loading h failed. Any previous payload is dropped.
func (s *Store) SetFailed(h handle.Handle, cause error) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "set failed %s", h)
	}
	r.payload = nil
	r.err = cause
	r.state = Failed
	s.log.Warn("asset failed to load", zap.Stringer("handle", h), zap.String("path", r.path), zap.Error(cause))
	return nil
}

// FailPath records a failed load for path, reusing the live record that owns
// it or reserving a new one, and returns its handle.
func (s *Store) FailPath(path string, cause error) handle.Handle {
	h := s.ReserveWithPath(path)
	s.mustSetFailed(h, cause)
	return h
}

// mustSetLoaded and mustSetFailed are for handles the caller resolved in the
// same call; an error there means the store is corrupt.
func (s *Store) mustSetLoaded(h handle.Handle, payload any) {
	if err := s.SetLoaded(h, payload); err != nil {
		panic("asset: record vanished: " + err.Error())
	}
}

func (s *Store) mustSetFailed(h handle.Handle, cause error) {
	if err := s.SetFailed(h, cause); err != nil {
		panic("asset: record vanished: " + err.Error())
	}
}

// Unload drops the payload of h but keeps the handle and its path, so the
// asset can be loaded again later.
func (s *Store) Unload(h handle.Handle) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "unload %s", h)
	}
	r.payload = nil
	r.state = Unloaded
	return nil
}

// State returns the lifecycle state of h.
func (s *Store) State(h handle.Handle) (State, bool) {
	r := s.rec(h)
	if r == nil {
		return NotLoaded, false
	}
	return r.state, true
}

// Progress returns the last progress reported by SetLoading.
func (s *Store) Progress(h handle.Handle) float32 {
	if r := s.rec(h); r != nil {
		return r.progress
	}
	return 0
}

// Err returns the failure cause recorded for h, if any.
func (s *Store) Err(h handle.Handle) error {
	if r := s.rec(h); r != nil {
		return r.err
	}
	return nil
}

// Path returns the source path of h.
func (s *Store) Path(h handle.Handle) (string, bool) {
	r := s.rec(h)
	if r == nil || r.path == "" {
		return "", false
	}
	return r.path, true
}

// SetPath moves h to path, releasing its previous path.
func (s *Store) SetPath(h handle.Handle, path string) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "set path %s", h)
	}
	if path == "" {
		return s.ClearPath(h)
	}
	if owner, ok := s.livePath(path); ok {
		if owner == h {
			return nil
		}
		return eris.Wrapf(ErrPathTaken, "set path %q on %s: owned by %s", path, h, owner)
	}
	if r.path != "" {
		delete(s.paths, r.path)
	}
	r.path = path
	s.paths[path] = h
	return nil
}

// ClearPath removes the path association of h.
func (s *Store) ClearPath(h handle.Handle) error {
	r := s.rec(h)
	if r == nil {
		return eris.Wrapf(ErrUnknownAsset, "clear path %s", h)
	}
	if r.path != "" {
		delete(s.paths, r.path)
		r.path = ""
	}
	return nil
}

// Handles returns every live handle in index order.
func (s *Store) Handles() []handle.Handle {
	out := make([]handle.Handle, 0, s.handles.Len())
	for i := range s.records {
		if g, live := s.handles.GenerationAt(uint32(i)); live {
			out = append(out, handle.Handle{Index: uint32(i), Generation: g})
		}
	}
	return out
}

// Paths returns every registered path in sorted order.
func (s *Store) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p, h := range s.paths {
		if s.handles.IsValid(h) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return s.handles.Len()
}

// Clear drops every record. All handles issued so far become stale.
func (s *Store) Clear() {
	s.handles.Clear()
	clear(s.records)
	clear(s.paths)
}

// As returns the payload of h as a T.
func As[T any](s *Store, h handle.Handle) (T, bool) {
	v, ok := s.Get(h)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
