package components

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/edwinsyarief/goudcore"
	"github.com/edwinsyarief/goudcore/asset"
	"github.com/edwinsyarief/goudcore/handle"
)

// Rect is a rectangle in texture pixels.
type Rect struct {
	X, Y, W, H float32
}

// IsEmpty reports whether r has no area. An empty source rectangle means the
// whole texture.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Sprite references a texture asset. The texture itself is owned by the asset
// store; the renderer resolves the handle at draw time.
type Sprite struct {
	Texture handle.Handle
	Source  Rect
	Color   mgl32.Vec4
	Anchor  mgl32.Vec2
	ZOrder  int32
	FlipX   bool
	FlipY   bool
	Hidden  bool
}

// NewSprite returns a visible, untinted sprite anchored at its centre.
func NewSprite(texture handle.Handle) Sprite {
	return Sprite{
		Texture: texture,
		Color:   mgl32.Vec4{1, 1, 1, 1},
		Anchor:  mgl32.Vec2{0.5, 0.5},
	}
}

// SpriteInstance is one sprite ready for submission, flattened from the
// entity's Sprite and its world transform. The world transform is the
// GlobalTransform2D when present, else the Transform2D.
type SpriteInstance struct {
	Entity   goudcore.Entity
	Position mgl32.Vec2
	Rotation float32
	Scale    mgl32.Vec2
	Texture  handle.Handle
	Source   Rect
	Color    mgl32.Vec4
	Anchor   mgl32.Vec2
	ZOrder   int32
	FlipX    bool
	FlipY    bool
}

// SpriteQuery walks every entity that has both a Transform2D and a Sprite.
// Keep one per world and reuse it every frame.
type SpriteQuery struct {
	world  *goudcore.World
	filter *goudcore.Filter2[Transform2D, Sprite]
}

// NewSpriteQuery creates a sprite query over w.
func NewSpriteQuery(w *goudcore.World) *SpriteQuery {
	return &SpriteQuery{world: w, filter: goudcore.NewFilter2[Transform2D, Sprite](w)}
}

// Collect appends the visible sprites to dst[:0] ordered by ZOrder, ties kept
// in storage order. Sprites whose texture is no longer live in store are
// skipped.
func (q *SpriteQuery) Collect(store *asset.Store, dst []SpriteInstance) []SpriteInstance {
	dst = dst[:0]
	q.filter.Reset()
	for q.filter.Next() {
		tr, sp := q.filter.Get()
		if sp.Hidden || !store.IsAlive(sp.Texture) {
			continue
		}
		e := q.filter.Entity()
		pos, rot, scale := tr.Position, tr.Rotation, tr.Scale
		if g := goudcore.GetComponent[GlobalTransform2D](q.world, e); g != nil {
			pos, rot, scale = g.Translation(), g.Rotation(), g.Scale()
		}
		dst = append(dst, SpriteInstance{
			Entity:   e,
			Position: pos,
			Rotation: rot,
			Scale:    scale,
			Texture:  sp.Texture,
			Source:   sp.Source,
			Color:    sp.Color,
			Anchor:   sp.Anchor,
			ZOrder:   sp.ZOrder,
			FlipX:    sp.FlipX,
			FlipY:    sp.FlipY,
		})
	}
	slices.SortStableFunc(dst, func(a, b SpriteInstance) int {
		return cmp.Compare(a.ZOrder, b.ZOrder)
	})
	return dst
}

// DrawList is a one-shot Collect for callers that do not keep a query around.
func DrawList(w *goudcore.World, store *asset.Store) []SpriteInstance {
	return NewSpriteQuery(w).Collect(store, nil)
}
