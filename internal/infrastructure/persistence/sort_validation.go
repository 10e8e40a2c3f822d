package persistence

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// orderClause builds a safe ORDER BY clause from a filter. Only allow-listed
// column names are accepted so user-supplied sort fields can never inject SQL.
func orderClause(filter shared.Filter, allowed map[string]bool, fallback string) string {
	field := filter.OrderBy
	if !allowed[field] {
		field = fallback
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	return field + " " + dir
}
