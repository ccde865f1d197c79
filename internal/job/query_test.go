package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListRequestOffsetAndLimit(t *testing.T) {
	for _, tc := range []struct {
		page, pageSize, wantOffset int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{5, 25, 100},
		{3, 1, 2},
	} {
		req := BuildListRequest(ListQuery{Page: tc.page, PageSize: tc.pageSize})
		assert.Equal(t, tc.wantOffset, req.Offset, "page %d size %d", tc.page, tc.pageSize)
		assert.Equal(t, tc.pageSize, req.Limit)
		assert.Equal(t, "created_at DESC", req.OrderBy)
	}
}

func TestSearchToTitleQuery(t *testing.T) {
	assert.Equal(t, "", SearchToTitleQuery(""))
	assert.Equal(t, "", SearchToTitleQuery("   \t "))
	assert.Equal(t, "golang", SearchToTitleQuery(" golang "))
	assert.Equal(t, "senior & backend & engineer", SearchToTitleQuery("senior backend  engineer"))
}

func TestSearchToTitleQueryIsIdempotent(t *testing.T) {
	for _, s := range []string{
		"senior engineer",
		"  one   two three ",
		"solo",
	} {
		once := SearchToTitleQuery(s)
		assert.Equal(t, once, SearchToTitleQuery(once), "input %q", s)
	}
}

func TestBuildListRequestIsDeterministic(t *testing.T) {
	q := ListQuery{Page: 3, PageSize: 10, Search: "senior engineer"}
	assert.Equal(t, BuildListRequest(q), BuildListRequest(q))
}
