package catalog

import (
	"fmt"

	"github.com/RyanBlaney/sonido-timbre/pitch"
)

var (
	builtinMale   = []string{"暖男音", "青叔音", "大叔音", "青年音", "公子音", "少年音", "正太音", "青受音"}
	builtinFemale = []string{"女王音", "御姐音", "御妈音", "软妹音", "少女音", "少萝音", "少御音", "萝莉音"}
)

const builtinAliasesPerModel = 3

// Builtin returns the fallback catalog: eight male and eight female labels, ids 1..16 in
// that order, each with a uniform distribution over r and three numbered variants as
// aliases.
func Builtin(r pitch.Range) *Catalog {
	models := make([]Model, 0, len(builtinMale)+len(builtinFemale))
	aliases := NewAliasMap()

	add := func(name string, g Gender) {
		models = append(models, Model{
			ID:           len(models) + 1,
			Name:         name,
			Gender:       g,
			Distribution: pitch.Uniform(r),
		})
		for i := 1; i <= builtinAliasesPerModel; i++ {
			aliases.Add(name, Alias{ID: i, Name: fmt.Sprintf("%s变种%d", name, i)})
		}
	}
	for _, name := range builtinMale {
		add(name, Male)
	}
	for _, name := range builtinFemale {
		add(name, Female)
	}

	c := New(models, aliases)
	c.builtin = true
	return c
}
