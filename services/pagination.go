package services

import (
	"strings"

	"gorm.io/gorm/clause"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage clamps page to at least 1 and limit to (0, MaxPageLimit].
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// worklistOrder sorts rows in the database the way SortWorklist sorts a
// slice, so paging keeps the most urgent rows on the first page: pending
// first, oldest pending first (tier only grows with age), the rest newest
// first.
func worklistOrder(pending, timeColumn string) clause.OrderBy {
	ts := clause.Column{Name: timeColumn}
	id := clause.Column{Name: "id"}
	return clause.OrderBy{Expression: clause.Expr{
		SQL: "CASE WHEN status = ? THEN 0 ELSE 1 END, " +
			"CASE WHEN status = ? THEN ? END ASC, ? DESC, " +
			"CASE WHEN status = ? THEN ? END ASC, ? DESC",
		Vars:               []interface{}{pending, pending, ts, ts, pending, id, id},
		WithoutParentheses: true,
	}}
}

// isUniqueViolation recognises unique index errors from drivers that do
// not translate them into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
