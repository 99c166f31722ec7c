package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// translate maps driver errors onto the error taxonomy. entity names the
// resource in hints, e.g. "invoice".
func translate(err error, entity string, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ierr.WithError(err).
				WithHintf("%s already exists", entity).
				WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
				Mark(ierr.ErrAlreadyExists)
		case pqForeignKeyViolation:
			return ierr.WithError(err).
				WithHintf("%s references a missing resource", entity).
				Mark(ierr.ErrNotFound)
		case pqCheckViolation:
			return ierr.WithError(err).
				WithHintf("%s violates a storage constraint", entity).
				Mark(ierr.ErrValidation)
		}
	}

	return ierr.WithError(err).
		WithMessagef("failed to %s %s", op, entity).
		WithHintf("Failed to %s %s", op, entity).
		Mark(ierr.ErrDatabase)
}

func notFound(entity, id string) error {
	return ierr.NewError(entity+" not found").
		WithHintf("%s %s was not found", entity, id).
		WithReportableDetails(map[string]any{"id": id}).
		Mark(ierr.ErrNotFound)
}

// orderClause whitelists sort columns so filters cannot inject SQL
func orderClause(sort, order string, allowed map[string]string) string {
	col, ok := allowed[sort]
	if !ok {
		col = allowed["created_at"]
	}
	dir := "DESC"
	if order == "asc" {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir + ", id " + dir
}
