package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"gorm.io/gorm/schema"
)

// Every foreign key the models declare must be covered by a relation,
// otherwise the RESTRICT constraint would make deletes fail at runtime.
func TestDefaultCoversEveryForeignKey(t *testing.T) {
	g := Default()

	declared := make(map[string]bool)
	for _, rel := range g.relations {
		declared[g.entities[rel.Child].Table+"."+rel.Column] = true
	}

	cache := &sync.Map{}
	namer := schema.NamingStrategy{}

	for _, model := range db.Models() {
		s, err := schema.Parse(model, cache, namer)
		require.NoError(t, err)

		for _, rel := range s.Relationships.Relations {
			switch rel.Type {
			case schema.BelongsTo:
				for _, ref := range rel.References {
					if ref.OwnPrimaryKey {
						continue
					}
					key := s.Table + "." + ref.ForeignKey.DBName
					assert.True(t, declared[key], "no relation declared for %s", key)
				}
			case schema.Many2Many:
				for _, ref := range rel.References {
					key := rel.JoinTable.Table + "." + ref.ForeignKey.DBName
					assert.True(t, declared[key], "no relation declared for %s", key)
				}
			}
		}
	}
}
