package table

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryKey is the cache and deduplication key for a list request: prefix:pageIndex:pageSize:sort:q=search.
// Two states map to the same key exactly when they request the same page.
func QueryKey(prefix string, s State) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.Pagination.PageIndex))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.Pagination.PageSize))
	b.WriteByte(':')
	for i, sort := range s.Sorting {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(url.QueryEscape(sort.ID))
		if sort.Desc {
			b.WriteString(".desc")
		} else {
			b.WriteString(".asc")
		}
	}
	b.WriteString(":q=")
	b.WriteString(url.QueryEscape(s.Search))
	return b.String()
}

// KeyPrefix returns the prefix every key of a list family starts with.
func KeyPrefix(prefix string) string {
	return prefix + ":"
}
