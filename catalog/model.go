// Package catalog holds the labeled voice models that observed pitch distributions are
// classified against, along with the aliases used to present secondary matches.
package catalog

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-timbre/pitch"
)

// Gender partitions the catalog.
type Gender int

const (
	Male Gender = iota
	Female
)

// ParseGender accepts the catalog flag values "0" and "1".
func ParseGender(flag int) (Gender, error) {
	switch Gender(flag) {
	case Male, Female:
		return Gender(flag), nil
	default:
		return 0, fmt.Errorf("gender flag must be 0 or 1, got %d", flag)
	}
}

// Opposite returns the other partition.
func (g Gender) Opposite() Gender {
	if g == Male {
		return Female
	}
	return Male
}

func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("gender(%d)", int(g))
	}
}

// Model is a labeled reference timbre with its pitch fingerprint.
type Model struct {
	ID           int
	Name         string
	Gender       Gender
	Distribution *pitch.Distribution
}

// Alias is an alternative display identity for a primary model.
type Alias struct {
	ID   int
	Name string
}

// AliasMap maps primary model names to their aliases. Duplicate aliases are kept and
// every list preserves insertion order, so a name listed twice is twice as likely to be
// picked during substitution.
type AliasMap struct {
	names   []string
	entries map[string][]Alias
}

// NewAliasMap returns an empty map.
func NewAliasMap() *AliasMap {
	return &AliasMap{entries: make(map[string][]Alias)}
}

// Add appends alias to the list for name.
func (m *AliasMap) Add(name string, alias Alias) {
	if _, ok := m.entries[name]; !ok {
		m.names = append(m.names, name)
	}
	m.entries[name] = append(m.entries[name], alias)
}

// Get returns the aliases for name in insertion order. The result may be empty and must
// not be modified.
func (m *AliasMap) Get(name string) []Alias {
	if m == nil {
		return nil
	}
	return m.entries[name]
}

// Names returns the primary names that have at least one alias, in first-seen order.
func (m *AliasMap) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.names)
}

// Total counts every alias entry, duplicates included.
func (m *AliasMap) Total() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, aliases := range m.entries {
		total += len(aliases)
	}
	return total
}

// Catalog is an immutable snapshot of the voice models and their aliases.
type Catalog struct {
	male    []Model
	female  []Model
	aliases *AliasMap
	builtin bool
}

// New partitions models by gender, preserving their order, and attaches aliases. A nil
// alias map is treated as empty.
func New(models []Model, aliases *AliasMap) *Catalog {
	c := &Catalog{aliases: aliases}
	if c.aliases == nil {
		c.aliases = NewAliasMap()
	}
	for _, m := range models {
		if m.Gender == Male {
			c.male = append(c.male, m)
		} else {
			c.female = append(c.female, m)
		}
	}
	return c
}

// ModelsOfGender returns the models of g in load order.
func (c *Catalog) ModelsOfGender(g Gender) []Model {
	if g == Male {
		return slices.Clone(c.male)
	}
	return slices.Clone(c.female)
}

// All returns every male model followed by every female model.
func (c *Catalog) All() []Model {
	return slices.Concat(c.male, c.female)
}

// Aliases returns the aliases registered for the primary model name.
func (c *Catalog) Aliases(name string) []Alias {
	return c.aliases.Get(name)
}

// AliasMap exposes the underlying alias multimap.
func (c *Catalog) AliasMap() *AliasMap {
	return c.aliases
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.male) + len(c.female)
}

// Builtin reports whether this is the built-in fallback catalog.
func (c *Catalog) Builtin() bool {
	return c.builtin
}
