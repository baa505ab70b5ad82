package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// batchSize keeps IN lists under sqlite's bound-variable limit.
const batchSize = 500

type Ref struct {
	Type EntityType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Dependent is one row reached from the root. For link entities ID is the
// parent's id and Via.Column selects the link rows.
type Dependent struct {
	Ref
	Policy Policy
	Via    Relation
}

// Closure is the set of rows a delete of Root has to touch.
type Closure struct {
	Root       Ref
	Dependents []Dependent
}

// IDs returns the ids of rows of type t that will be deleted, root included.
func (c *Closure) IDs(t EntityType) []uuid.UUID {
	var out []uuid.UUID
	if c.Root.Type == t {
		out = append(out, c.Root.ID)
	}
	for _, d := range c.Dependents {
		if d.Type == t && d.Policy == Cascade {
			out = append(out, d.ID)
		}
	}
	return out
}

// Links returns the cascading dependents of link type t.
func (c *Closure) Links(t EntityType) []Dependent {
	var out []Dependent
	for _, d := range c.Dependents {
		if d.Type == t && d.Policy == Cascade {
			out = append(out, d)
		}
	}
	return out
}

// Nullified returns the rows that survive with a cleared reference.
func (c *Closure) Nullified() []Dependent {
	var out []Dependent
	for _, d := range c.Dependents {
		if d.Policy == Nullify {
			out = append(out, d)
		}
	}
	return out
}

func (c *Closure) Contains(ref Ref) bool {
	if ref == c.Root {
		return true
	}
	for _, d := range c.Dependents {
		if d.Ref == ref && d.Policy == Cascade {
			return true
		}
	}
	return false
}

// DependentsOf resolves the transitive closure of rows depending on the
// root, reading through tx so the result matches what the same transaction
// will delete. The walk is breadth first and batched per relation; every
// (type, id) pair is resolved once, so reference cycles terminate.
func (g *Graph) DependentsOf(ctx context.Context, tx *gorm.DB, rootType EntityType, rootID uuid.UUID) (*Closure, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if _, ok := g.entities[rootType]; !ok {
		return nil, violation("unknown root type %q", rootType)
	}

	root := Ref{Type: rootType, ID: rootID}
	closure := &Closure{Root: root}
	seen := map[Ref]int{root: -1}
	frontier := map[EntityType][]uuid.UUID{rootType: {rootID}}
	var restricted []Dependent

	for len(frontier) > 0 {
		next := make(map[EntityType][]uuid.UUID)

		for _, parentType := range g.order {
			parents := frontier[parentType]
			if len(parents) == 0 {
				continue
			}

			for _, rel := range g.byParent[parentType] {
				child := g.entities[rel.Child]

				if child.IsLink() {
					for _, id := range parents {
						ref := Ref{Type: rel.Child, ID: id}
						if _, ok := seen[ref]; ok {
							continue
						}
						seen[ref] = len(closure.Dependents)
						closure.Dependents = append(closure.Dependents, Dependent{Ref: ref, Policy: Cascade, Via: rel})
					}
					continue
				}

				ids, err := g.childIDs(ctx, tx, child, rel.Column, parents)
				if err != nil {
					return nil, fmt.Errorf("resolve %s.%s: %w", child.Table, rel.Column, err)
				}

				if rel.Policy == Restrict {
					for _, id := range ids {
						restricted = append(restricted, Dependent{Ref: Ref{Type: rel.Child, ID: id}, Policy: Restrict, Via: rel})
					}
					continue
				}

				for _, id := range ids {
					ref := Ref{Type: rel.Child, ID: id}

					if idx, ok := seen[ref]; ok {
						// a row first reached through a nullify edge is deleted
						// anyway when a cascade edge reaches it too
						if idx >= 0 && rel.Policy == Cascade && closure.Dependents[idx].Policy == Nullify {
							closure.Dependents[idx].Policy = Cascade
							closure.Dependents[idx].Via = rel
							if !rel.Weak {
								next[rel.Child] = append(next[rel.Child], id)
							}
						}
						continue
					}

					seen[ref] = len(closure.Dependents)
					closure.Dependents = append(closure.Dependents, Dependent{Ref: ref, Policy: rel.Policy, Via: rel})

					if rel.Policy == Cascade && !rel.Weak {
						next[rel.Child] = append(next[rel.Child], id)
					}
				}
			}
		}

		frontier = next
	}

	// a restricted row only blocks when no cascade edge deletes it
	blocking := make(map[Relation]int)
	var first []Relation
	for _, d := range restricted {
		if closure.Contains(d.Ref) {
			continue
		}
		if blocking[d.Via] == 0 {
			first = append(first, d.Via)
		}
		blocking[d.Via]++
	}
	if len(first) > 0 {
		return nil, &RestrictError{Relation: first[0], Count: blocking[first[0]]}
	}

	return closure, nil
}

func (g *Graph) childIDs(ctx context.Context, tx *gorm.DB, child Entity, column string, parents []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID

	for start := 0; start < len(parents); start += batchSize {
		end := min(start+batchSize, len(parents))

		var ids []uuid.UUID
		err := tx.WithContext(ctx).
			Table(child.Table).
			Where(clause.IN{Column: clause.Column{Name: column}, Values: Values(parents[start:end])}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: child.PrimaryKey}}).
			Pluck(child.PrimaryKey, &ids).Error
		if err != nil {
			return nil, err
		}

		out = append(out, ids...)
	}

	return out, nil
}

// Values converts ids into query arguments in the driver's native form.
func Values(ids []uuid.UUID) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
