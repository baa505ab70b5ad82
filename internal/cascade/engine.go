// Package cascade deletes a root entity together with everything that
// depends on it, as one transaction driven by a referential graph.
package cascade

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultTimeout = 30 * time.Second

// Observer is told about every committed deletion. It runs after commit, so
// an error it returns is logged and nothing more.
type Observer func(ctx context.Context, summary *Summary) error

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithAuthorizer replaces the policy used for roots of type t.
func WithAuthorizer(t graph.EntityType, fn AuthorizeFunc) Option {
	return func(e *Engine) {
		e.policies[t] = fn
	}
}

type Engine struct {
	db        *gorm.DB
	graph     *graph.Graph
	policies  map[graph.EntityType]AuthorizeFunc
	observers []Observer
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func NewEngine(db *gorm.DB, g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		graph:    g,
		policies: DefaultPolicies(),
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Delete removes the root row and its transitive dependents. On any error
// the store is left exactly as it was.
func (e *Engine) Delete(ctx context.Context, rootType graph.EntityType, rootID, requesterID uuid.UUID) (*Summary, error) {
	start := time.Now()

	summary, err := e.delete(ctx, rootType, rootID, requesterID)

	took := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveDeletion(string(rootType), Outcome(err), took)
	}

	if err != nil {
		zap.L().Warn("cascade delete aborted",
			zap.String("root_type", string(rootType)),
			zap.String("root_id", rootID.String()),
			zap.String("requester_id", requesterID.String()),
			zap.String("outcome", Outcome(err)),
			zap.Error(err),
		)
		return nil, err
	}

	summary.Duration = took
	e.committed(ctx, summary, requesterID)

	return summary, nil
}

func (e *Engine) delete(ctx context.Context, rootType graph.EntityType, rootID, requesterID uuid.UUID) (*Summary, error) {
	if err := e.graph.Validate(); err != nil {
		return nil, err
	}

	root, ok := e.graph.Entity(rootType)
	if !ok || root.IsLink() {
		return nil, &graph.InvariantViolation{Reason: fmt.Sprintf("%q cannot be deleted as a root", rootType)}
	}

	authorize, ok := e.policies[rootType]
	if !ok {
		return nil, &graph.InvariantViolation{Reason: fmt.Sprintf("no authorization policy for %q", rootType)}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	summary := newSummary(graph.Ref{Type: rootType, ID: rootID})

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.lockRoot(tx, root, rootID); err != nil {
			return err
		}

		if err := authorize(ctx, tx, rootID, requesterID); err != nil {
			return err
		}

		closure, err := e.graph.DependentsOf(ctx, tx, rootType, rootID)
		if err != nil {
			return err
		}

		return e.execute(tx, closure, summary)
	}, e.txOptions()...)

	if err != nil {
		// losing a serialization race to a delete of the same root means
		// the root is already gone
		if isSerializationFailure(err) && e.vanished(ctx, root, rootID) {
			return nil, ErrNotFound
		}
		return nil, classify(ctx, err)
	}

	return summary, nil
}

// lockRoot reads the root row and, where the dialect has row locks, holds
// it until commit so concurrent deletes of the same root queue up.
func (e *Engine) lockRoot(tx *gorm.DB, root graph.Entity, id uuid.UUID) error {
	query := tx.Table(root.Table).
		Where(clause.Eq{Column: clause.Column{Name: root.PrimaryKey}, Value: id}).
		Limit(1)

	if hasRowLocks(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var found []uuid.UUID
	if err := query.Pluck(root.PrimaryKey, &found).Error; err != nil {
		return err
	}

	if len(found) == 0 {
		return ErrNotFound
	}

	return nil
}

// vanished reports whether the root is absent when read outside the
// aborted transaction.
func (e *Engine) vanished(ctx context.Context, root graph.Entity, id uuid.UUID) bool {
	var n int64
	err := e.db.WithContext(ctx).
		Table(root.Table).
		Where(clause.Eq{Column: clause.Column{Name: root.PrimaryKey}, Value: id}).
		Count(&n).Error

	return err == nil && n == 0
}

func (e *Engine) execute(tx *gorm.DB, closure *graph.Closure, summary *Summary) error {
	order, err := e.graph.DeletionOrder()
	if err != nil {
		return err
	}

	// break parent chains inside the affected set so rows of one type can
	// go in a single statement whatever the depth or shape of the chain
	for _, t := range order {
		ids := closure.IDs(t)
		if len(ids) == 0 {
			continue
		}

		entity, _ := e.graph.Entity(t)
		for _, rel := range e.graph.SelfReferences(t) {
			if _, err := e.nullify(tx, entity.Table, rel.Column, entity.PrimaryKey, ids); err != nil {
				return fmt.Errorf("clear %s.%s: %w", entity.Table, rel.Column, err)
			}
		}
	}

	for rel, ids := range groupByRelation(closure.Nullified()) {
		entity, _ := e.graph.Entity(rel.Child)

		n, err := e.nullify(tx, entity.Table, rel.Column, entity.PrimaryKey, ids)
		if err != nil {
			return fmt.Errorf("nullify %s.%s: %w", entity.Table, rel.Column, err)
		}

		summary.Nullified[rel.Child] += n
	}

	for _, t := range order {
		entity, _ := e.graph.Entity(t)

		if entity.IsLink() {
			for rel, parents := range groupByRelation(closure.Links(t)) {
				n, err := e.remove(tx, entity.Table, rel.Column, parents)
				if err != nil {
					return fmt.Errorf("delete %s by %s: %w", entity.Table, rel.Column, err)
				}
				summary.Removed[t] += n
			}
			continue
		}

		ids := closure.IDs(t)
		if len(ids) == 0 {
			continue
		}

		n, err := e.remove(tx, entity.Table, entity.PrimaryKey, ids)
		if err != nil {
			return fmt.Errorf("delete %s: %w", entity.Table, err)
		}
		summary.Removed[t] += n
	}

	if summary.Removed[closure.Root.Type] == 0 {
		return ErrNotFound
	}

	return nil
}

func (e *Engine) nullify(tx *gorm.DB, table, column, key string, ids []uuid.UUID) (int64, error) {
	stmt := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s IN ?",
		tx.Statement.Quote(table), tx.Statement.Quote(column), tx.Statement.Quote(key))

	return execBatched(tx, stmt, ids)
}

func (e *Engine) remove(tx *gorm.DB, table, column string, ids []uuid.UUID) (int64, error) {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", tx.Statement.Quote(table), tx.Statement.Quote(column))

	return execBatched(tx, stmt, ids)
}

// execBatchSize matches the closure walk's IN list bound.
const execBatchSize = 500

func execBatched(tx *gorm.DB, stmt string, ids []uuid.UUID) (int64, error) {
	var affected int64

	for start := 0; start < len(ids); start += execBatchSize {
		end := min(start+execBatchSize, len(ids))

		res := tx.Exec(stmt, ids[start:end])
		if res.Error != nil {
			return affected, res.Error
		}

		affected += res.RowsAffected
	}

	return affected, nil
}

func groupByRelation(deps []graph.Dependent) map[graph.Relation][]uuid.UUID {
	out := make(map[graph.Relation][]uuid.UUID)
	for _, d := range deps {
		out[d.Via] = append(out[d.Via], d.ID)
	}
	return out
}

func (e *Engine) committed(ctx context.Context, summary *Summary, requesterID uuid.UUID) {
	fields := []zap.Field{
		zap.String("root_type", string(summary.Root.Type)),
		zap.String("root_id", summary.Root.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.Int64("total", summary.Total()),
		zap.Duration("took", summary.Duration),
	}
	for _, t := range summary.Types() {
		fields = append(fields, zap.Int64("removed_"+string(t), summary.Removed[t]))
	}
	zap.L().Info("cascade delete committed", fields...)

	if e.metrics != nil {
		for t, n := range summary.Removed {
			e.metrics.AddDeletedRows(string(t), n)
		}
	}

	for _, observe := range e.observers {
		if err := observe(ctx, summary); err != nil {
			zap.L().Error("post-delete observer failed",
				zap.String("root_type", string(summary.Root.Type)),
				zap.String("root_id", summary.Root.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (e *Engine) txOptions() []*sql.TxOptions {
	switch e.db.Dialector.Name() {
	case "postgres", "mysql":
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return nil
}

func hasRowLocks(tx *gorm.DB) bool {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return true
	}
	return false
}
