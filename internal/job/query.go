package job

import "strings"

const tsQuerySeparator = " & "

// BuildListRequest turns a ListQuery into the bounded, ordered fetch shape
// the repository executes. Pure: the same query always yields the same
// request.
func BuildListRequest(q ListQuery) ListRequest {
	return ListRequest{
		Offset:     (q.Page - 1) * q.PageSize,
		Limit:      q.PageSize,
		OrderBy:    "created_at DESC",
		TitleQuery: SearchToTitleQuery(q.Search),
	}
}

// SearchToTitleQuery normalises free search text into an AND-conjunction
// tsquery over the title field. Empty or whitespace-only text yields no
// predicate. strings.Fields also swallows the separator itself, so the
// transformation is idempotent on its own output.
func SearchToTitleQuery(search string) string {
	terms := strings.Fields(strings.ReplaceAll(search, "&", " "))
	return strings.Join(terms, tsQuerySeparator)
}
