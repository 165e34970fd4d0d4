package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for unique constraint conflicts.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// violatedConstraint returns the name of the violated constraint, or "".
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
