package repository

import (
	"fmt"
	"strings"

	"cms_server/server/cms/domain"
)

// searchClause builds a case-insensitive substring filter over the given
// text columns. Returns an empty clause when no search term is present.
func searchClause(search string, columns ...string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(search) + "%"
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s ILIKE $1", col))
	}
	return " WHERE (" + strings.Join(parts, " OR ") + ")", []any{pattern}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func sortDirection(sort domain.SortOrder) string {
	if sort == domain.SortOldest {
		return "ASC"
	}
	return "DESC"
}

// orderClause applies one direction to every column, the last acting as a
// tiebreak, so the ordering is total and flips as a whole.
func orderClause(sort domain.SortOrder, columns ...string) string {
	dir := sortDirection(sort)
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
