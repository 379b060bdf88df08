package entities

import (
	"fmt"
	"sort"

	"github.com/portoseguro/backend/pkg/utils"
)

// Level is how much of an item was consumed on an entry.
type Level int

const (
	LevelNone   Level = 0
	LevelLight  Level = 1 // "pouco"
	LevelNormal Level = 2 // "normal"
	LevelHeavy  Level = 3 // "muito"
)

// Valid reports whether l is one of the three recordable levels.
func (l Level) Valid() bool {
	return l >= LevelLight && l <= LevelHeavy
}

// MaxLevel returns the larger of two levels. Contributions to the same item
// on the same entry are always coalesced with MaxLevel, never summed.
func MaxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}

// ItemKind discriminates the entries of the item registry.
type ItemKind string

const (
	ItemKindBaseFood  ItemKind = "base_food"
	ItemKindTracker   ItemKind = "tracker"
	ItemKindComposite ItemKind = "composite"
)

// IsValid checks if the kind is one of the defined constants.
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindBaseFood, ItemKindTracker, ItemKindComposite:
		return true
	}
	return false
}

// CompositeDef is the one-level expansion of a recipe.
type CompositeDef struct {
	// Main ingredients contribute at the level the entry selected.
	Main []string `json:"main" yaml:"main"`
	// Minor ingredients always contribute at LevelLight.
	Minor []string `json:"minor" yaml:"minor"`
	// Trackers are hidden components (gluten, lactose) contributing at the selected level.
	Trackers []string `json:"trackers" yaml:"trackers"`
}

// Members returns every item referenced by the definition.
func (d *CompositeDef) Members() []string {
	if d == nil {
		return nil
	}
	members := make([]string, 0, len(d.Main)+len(d.Minor)+len(d.Trackers))
	members = append(members, d.Main...)
	members = append(members, d.Minor...)
	members = append(members, d.Trackers...)
	return members
}

// Item is one entry of the registry. Composite is set only when Kind is
// ItemKindComposite.
type Item struct {
	ID        string        `json:"id"`
	Kind      ItemKind      `json:"kind"`
	Composite *CompositeDef `json:"composite,omitempty"`
}

// Registry is the versioned vocabulary of trackable items for one analysis run.
// It is immutable once built and is passed explicitly to the normalizer and
// the analyzer.
type Registry struct {
	version int64
	items   map[string]Item
}

// NewRegistry canonicalizes item ids and composite members. Members referenced
// by a composite but not declared are registered implicitly: main and minor
// ingredients as base foods, trackers as trackers. A member that is a tracker
// in one composite and an ingredient in another is a tracker. A declared item
// always wins over an implicit one.
func NewRegistry(version int64, items []Item) (*Registry, error) {
	r := &Registry{
		version: version,
		items:   make(map[string]Item, len(items)),
	}

	for _, item := range items {
		id := utils.CanonicalItemID(item.ID)
		if id == "" {
			return nil, fmt.Errorf("registry: item with empty id")
		}
		if !item.Kind.IsValid() {
			return nil, fmt.Errorf("registry: item %q has invalid kind %q", id, item.Kind)
		}
		if _, dup := r.items[id]; dup {
			return nil, fmt.Errorf("registry: duplicate item %q", id)
		}

		canonical := Item{ID: id, Kind: item.Kind}
		if item.Kind == ItemKindComposite {
			if item.Composite == nil {
				return nil, fmt.Errorf("registry: composite %q has no definition", id)
			}
			canonical.Composite = &CompositeDef{
				Main:     canonicalList(item.Composite.Main),
				Minor:    canonicalList(item.Composite.Minor),
				Trackers: canonicalList(item.Composite.Trackers),
			}
		}
		r.items[id] = canonical
	}

	composites := make([]Item, 0)
	for _, item := range r.items {
		if item.Kind == ItemKindComposite {
			composites = append(composites, item)
		}
	}
	sort.Slice(composites, func(i, j int) bool { return composites[i].ID < composites[j].ID })

	// Trackers go first: a member listed as a tracker anywhere is a tracker,
	// whatever order the composites come in.
	for _, item := range composites {
		for _, m := range item.Composite.Trackers {
			r.addImplicit(m, ItemKindTracker)
		}
	}
	for _, item := range composites {
		for _, m := range append(append([]string{}, item.Composite.Main...), item.Composite.Minor...) {
			r.addImplicit(m, ItemKindBaseFood)
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for static catalogs; it panics on error.
func MustRegistry(version int64, items []Item) *Registry {
	r, err := NewRegistry(version, items)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) addImplicit(id string, kind ItemKind) {
	if _, ok := r.items[id]; ok {
		return
	}
	r.items[id] = Item{ID: id, Kind: kind}
}

func canonicalList(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c := utils.CanonicalItemID(id)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Version identifies the catalog snapshot the registry was built from.
func (r *Registry) Version() int64 {
	return r.version
}

// Len returns the number of registered items, implicit ones included.
func (r *Registry) Len() int {
	return len(r.items)
}

// Resolve looks up an item by (not necessarily canonical) name.
func (r *Registry) Resolve(name string) (Item, bool) {
	item, ok := r.items[utils.CanonicalItemID(name)]
	return item, ok
}

// Items returns all items sorted by id.
func (r *Registry) Items() []Item {
	items := make([]Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// Candidates returns the ids eligible for trigger analysis: base foods and
// trackers. Composite names are never candidates.
func (r *Registry) Candidates() []Item {
	items := r.Items()
	out := items[:0]
	for _, item := range items {
		if item.Kind != ItemKindComposite {
			out = append(out, item)
		}
	}
	return out
}
