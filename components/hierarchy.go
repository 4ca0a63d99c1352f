package components

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/edwinsyarief/goudcore"
)

// ErrHierarchyCycle is returned by SetParent when the new parent is the child
// itself or one of its descendants.
var ErrHierarchyCycle = eris.New("hierarchy cycle")

// Parent points at the entity this one is attached to. Use SetParent and
// RemoveParent rather than writing it directly so the parent's Children stay
// in step.
type Parent struct {
	Entity goudcore.Entity
}

// Children lists the entities attached to this one, in attach order.
type Children struct {
	entities []goudcore.Entity
}

// Len returns the number of children.
func (c *Children) Len() int {
	return len(c.entities)
}

// At returns the i-th child.
func (c *Children) At(i int) goudcore.Entity {
	return c.entities[i]
}

// Contains reports whether e is a direct child.
func (c *Children) Contains(e goudcore.Entity) bool {
	return slices.Contains(c.entities, e)
}

// IndexOf returns the position of e, or -1.
func (c *Children) IndexOf(e goudcore.Entity) int {
	return slices.Index(c.entities, e)
}

// All returns the children in attach order. The slice must not be modified.
func (c *Children) All() []goudcore.Entity {
	return c.entities
}

func (c *Children) push(e goudcore.Entity) {
	if !c.Contains(e) {
		c.entities = append(c.entities, e)
	}
}

func (c *Children) remove(e goudcore.Entity) bool {
	i := c.IndexOf(e)
	if i < 0 {
		return false
	}
	c.entities = slices.Delete(c.entities, i, i+1)
	return true
}

// SetParent attaches child under parent, detaching it from any previous
// parent first. The parent gains a Children component on its first child.
//
// Returns:
//   - goudcore.ErrUnknownEntity if either entity is stale, ErrHierarchyCycle if
//     parent is child or one of its descendants. The world is unchanged on
//     error.
func SetParent(w *goudcore.World, child, parent goudcore.Entity) error {
	if !w.IsValid(child) {
		return eris.Wrapf(goudcore.ErrUnknownEntity, "attach child %s", child)
	}
	if !w.IsValid(parent) {
		return eris.Wrapf(goudcore.ErrUnknownEntity, "attach to parent %s", parent)
	}
	// walk up from parent; the bound stops on corrupted Parent chains
	e := parent
	for range w.Len() {
		if e == child {
			return eris.Wrapf(ErrHierarchyCycle, "attach %s under %s", child, parent)
		}
		p := goudcore.GetComponent[Parent](w, e)
		if p == nil {
			break
		}
		e = p.Entity
	}

	if old := goudcore.GetComponent[Parent](w, child); old != nil {
		if old.Entity == parent {
			return nil
		}
		detach(w, old.Entity, child)
	}
	if err := goudcore.SetComponent(w, child, Parent{Entity: parent}); err != nil {
		return err
	}
	if ch := goudcore.GetComponent[Children](w, parent); ch != nil {
		ch.push(child)
		return nil
	}
	return goudcore.AddComponent(w, parent, Children{entities: []goudcore.Entity{child}})
}

// RemoveParent detaches child from its parent, making it a root.
//
// Returns:
//   - goudcore.ErrUnknownEntity if child is stale, goudcore.ErrComponentNotFound
//     if it has no parent.
func RemoveParent(w *goudcore.World, child goudcore.Entity) error {
	p := goudcore.GetComponent[Parent](w, child)
	if p == nil {
		return goudcore.RemoveComponent[Parent](w, child)
	}
	detach(w, p.Entity, child)
	return goudcore.RemoveComponent[Parent](w, child)
}

func detach(w *goudcore.World, parent, child goudcore.Entity) {
	if ch := goudcore.GetComponent[Children](w, parent); ch != nil {
		ch.remove(child)
	}
}

// Descendants appends every entity below root to dst, depth first in attach
// order. Stale children are skipped.
func Descendants(w *goudcore.World, root goudcore.Entity, dst []goudcore.Entity) []goudcore.Entity {
	ch := goudcore.GetComponent[Children](w, root)
	if ch == nil {
		return dst
	}
	for _, c := range ch.entities {
		if !w.IsValid(c) {
			continue
		}
		dst = append(dst, c)
		dst = Descendants(w, c, dst)
	}
	return dst
}

// DespawnRecursive despawns e and everything below it, detaching e from its
// parent. It returns the number of entities despawned.
func DespawnRecursive(w *goudcore.World, e goudcore.Entity) int {
	if !w.IsValid(e) {
		return 0
	}
	if p := goudcore.GetComponent[Parent](w, e); p != nil {
		detach(w, p.Entity, e)
	}
	return w.DespawnBatch(Descendants(w, e, []goudcore.Entity{e}))
}
