package table

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestEncodeOmitsDefaults(t *testing.T) {
	assert.Empty(t, Encode(testDefaults.Initial(), testDefaults).Encode())

	s := State{
		Pagination: Pagination{PageIndex: 2, PageSize: 20},
		Sorting:    []Sort{{ID: "createdAt", Desc: true}},
		Search:     "jane smith",
	}
	assert.Equal(t, "pageIndex=2&pageSize=20&q=jane+smith&sortBy=createdAt&sortDesc=true", Encode(s, testDefaults).Encode())
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []State{
		testDefaults.Initial(),
		{Pagination: Pagination{PageIndex: 1, PageSize: 3}},
		{Pagination: Pagination{PageIndex: 0, PageSize: 10}, Sorting: []Sort{{ID: "name"}}},
		{Pagination: Pagination{PageIndex: 7, PageSize: 50}, Sorting: []Sort{{ID: "email", Desc: true}}, Search: "a&b=c?"},
		{Pagination: Pagination{PageIndex: 0, PageSize: 100}, Search: "ünïcode"},
	}
	for _, s := range cases {
		got := Decode(Encode(s, testDefaults), testDefaults)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeIsLenient(t *testing.T) {
	values := url.Values{
		ParamPageIndex: {"-1"},
		ParamPageSize:  {"abc"},
		ParamSortBy:    {"password"},
		ParamSortDesc:  {"maybe"},
		ParamSearch:    {"  x  "},
	}
	want := State{Pagination: Pagination{PageIndex: 0, PageSize: 10}, Search: "x"}
	if diff := cmp.Diff(want, Decode(values, testDefaults)); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}

	clamped := Decode(url.Values{ParamPageSize: {"5000"}}, testDefaults)
	assert.Equal(t, 100, clamped.Pagination.PageSize)
}

func TestMergeKeepsUnrelatedParams(t *testing.T) {
	base := url.Values{"tab": {"all"}, ParamPageIndex: {"3"}}
	merged := Merge(base, testDefaults.Initial().WithPageIndex(1), testDefaults)
	assert.Equal(t, "pageIndex=1&tab=all", merged.Encode())
	assert.Equal(t, "3", base.Get(ParamPageIndex))
}

func TestHref(t *testing.T) {
	assert.Equal(t, "/admin/users", Href("/admin/users", testDefaults.Initial(), testDefaults))
	assert.Equal(t, "/admin/users?q=admin", Href("/admin/users", State{Pagination: Pagination{PageSize: 10}, Search: "admin"}, testDefaults))
}
