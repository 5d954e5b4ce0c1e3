package tile

import (
	"fmt"
	"slices"
)

// Table is an immutable set of templates shared by every placed tile.
type Table struct {
	name      string
	templates map[ID]*Template
	ids       []ID
	counts    map[ID]int
}

// NewTable validates every template and rejects duplicate ids.
func NewTable(templates ...*Template) (*Table, error) {
	t := &Table{
		templates: make(map[ID]*Template, len(templates)),
		ids:       make([]ID, 0, len(templates)),
		counts:    make(map[ID]int),
	}
	for _, tpl := range templates {
		if tpl == nil {
			return nil, fmt.Errorf("%w: nil template", ErrInvalidTemplate)
		}
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate tile template %q", tpl.ID)
		}
		t.templates[tpl.ID] = tpl
		t.ids = append(t.ids, tpl.ID)
	}
	slices.Sort(t.ids)
	return t, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) Get(id ID) (*Template, bool) {
	tpl, ok := t.templates[id]
	return tpl, ok
}

// MustGet panics on unknown ids; meant for tests and static setup.
func (t *Table) MustGet(id ID) *Template {
	tpl, ok := t.templates[id]
	if !ok {
		panic(fmt.Sprintf("unknown tile template %q", id))
	}
	return tpl
}

// IDs returns the template ids in sorted order.
func (t *Table) IDs() []ID { return slices.Clone(t.ids) }

func (t *Table) Len() int { return len(t.ids) }

// Count is the number of copies of id in a full deck, zero if unspecified.
func (t *Table) Count(id ID) int { return t.counts[id] }
