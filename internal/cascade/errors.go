package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/metrics"
)

var (
	ErrNotFound         = errors.New("root entity not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// DeletionFailedError wraps any store failure that aborted the transaction.
// Nothing was changed when it is returned.
type DeletionFailedError struct {
	Reason string
	Err    error
}

func (e *DeletionFailedError) Error() string {
	return fmt.Sprintf("deletion failed: %s: %v", e.Reason, e.Err)
}

func (e *DeletionFailedError) Unwrap() error {
	return e.Err
}

// classify maps whatever aborted the transaction onto the caller-facing
// error kinds. Not-found, permission and invariant errors pass through.
func classify(ctx context.Context, err error) error {
	var invariant *graph.InvariantViolation

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied) || errors.As(err, &invariant) {
		return err
	}

	return &DeletionFailedError{Reason: reason(ctx, err), Err: err}
}

func reason(ctx context.Context, err error) string {
	var (
		restrict *graph.RestrictError
		pgErr    *pgconn.PgError
		myErr    *mysql.MySQLError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.As(err, &restrict):
		return "restricted"
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case "23503":
			return "foreign key violation on " + pgErr.ConstraintName
		case "40001", "40P01":
			return "concurrent modification"
		case "57014":
			return "timed out"
		}
		return "store error " + pgErr.Code
	case errors.As(err, &myErr):
		switch myErr.Number {
		case 1451, 1452:
			return "foreign key violation"
		case 1205, 1213:
			return "concurrent modification"
		}
		return fmt.Sprintf("store error %d", myErr.Number)
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return "foreign key violation"
	case strings.Contains(err.Error(), "database is locked"):
		return "concurrent modification"
	}

	return "store error"
}

func isSerializationFailure(err error) bool {
	var (
		pgErr *pgconn.PgError
		myErr *mysql.MySQLError
	)

	switch {
	case errors.As(err, &pgErr):
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	case errors.As(err, &myErr):
		return myErr.Number == 1213
	}

	return false
}

// Outcome names the error kind for metrics and logs.
func Outcome(err error) string {
	var invariant *graph.InvariantViolation

	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrPermissionDenied):
		return metrics.OutcomePermissionDenied
	case errors.As(err, &invariant):
		return metrics.OutcomeInvariant
	}

	return metrics.OutcomeFailed
}
