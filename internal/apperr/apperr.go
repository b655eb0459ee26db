// Package apperr defines the typed failures the core produces and their
// mapping to HTTP status codes at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// NotFound signals that a referenced entity does not exist. Raised by the
// referential validator before any write, and by scoped reads whose
// scoping parent is missing.
type NotFound struct {
	Kind string
	ID   int
}

func (e NotFound) Error() string {
	return fmt.Sprintf("%s with id %d is not found", e.Kind, e.ID)
}

// Conflict signals a uniqueness invariant violation.
type Conflict struct {
	Kind  string
	Field string
}

func (e Conflict) Error() string {
	return fmt.Sprintf("%s with the same %s already exists", e.Kind, e.Field)
}

// InvalidInput signals a payload the core refuses before touching storage:
// an unsupported geometry variant, or a patch with no recognized fields.
type InvalidInput struct {
	Reason string
}

func (e InvalidInput) Error() string {
	return "invalid input: " + e.Reason
}

// Status returns the HTTP status code for a core failure. Unknown errors
// map to 500.
func Status(err error) int {
	switch {
	case errors.As(err, &NotFound{}):
		return http.StatusNotFound
	case errors.As(err, &Conflict{}):
		return http.StatusConflict
	case errors.As(err, &InvalidInput{}):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Postgres error codes worth translating. The explicit pre-checks catch
// these cases first; the translation covers races between two sessions.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromPg translates driver-level constraint failures into the typed
// taxonomy. Other errors pass through unchanged.
func FromPg(err error, kind string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Conflict{Kind: kind, Field: pgErr.ConstraintName}
		case pgForeignKeyViolation:
			return InvalidInput{Reason: fmt.Sprintf("%s references a missing row (%s)", kind, pgErr.ConstraintName)}
		}
	}
	return err
}
