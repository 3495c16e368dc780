package table

import (
	"net/url"
	"strconv"
	"strings"
)

// URL query parameter names.
const (
	ParamSearch    = "q"
	ParamPageIndex = "pageIndex"
	ParamPageSize  = "pageSize"
	ParamSortBy    = "sortBy"
	ParamSortDesc  = "sortDesc"
)

var stateParams = []string{ParamSearch, ParamPageIndex, ParamPageSize, ParamSortBy, ParamSortDesc}

// Encode writes the state as query parameters, omitting values equal to their defaults.
func Encode(s State, d Defaults) url.Values {
	s = d.Normalize(s)
	values := url.Values{}
	if s.Search != "" {
		values.Set(ParamSearch, s.Search)
	}
	if s.Pagination.PageIndex != 0 {
		values.Set(ParamPageIndex, strconv.Itoa(s.Pagination.PageIndex))
	}
	if s.Pagination.PageSize != d.pageSize() {
		values.Set(ParamPageSize, strconv.Itoa(s.Pagination.PageSize))
	}
	if len(s.Sorting) > 0 {
		values.Set(ParamSortBy, s.Sorting[0].ID)
		if s.Sorting[0].Desc {
			values.Set(ParamSortDesc, "true")
		}
	}
	return values
}

// Decode reads the state back from query parameters. Malformed values fall back to defaults.
func Decode(values url.Values, d Defaults) State {
	s := d.Initial()
	s.Search = strings.TrimSpace(values.Get(ParamSearch))

	if raw := values.Get(ParamPageIndex); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			s.Pagination.PageIndex = n
		}
	}
	if raw := values.Get(ParamPageSize); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			s.Pagination.PageSize = n
		}
	}
	if id := strings.TrimSpace(values.Get(ParamSortBy)); id != "" {
		desc, _ := strconv.ParseBool(values.Get(ParamSortDesc))
		s.Sorting = []Sort{{ID: id, Desc: desc}}
	}
	return d.Normalize(s)
}

// Merge replaces the table parameters in base with the encoded state and keeps unrelated parameters.
func Merge(base url.Values, s State, d Defaults) url.Values {
	out := url.Values{}
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for _, p := range stateParams {
		out.Del(p)
	}
	for k, v := range Encode(s, d) {
		out[k] = v
	}
	return out
}

// Href renders path plus the encoded state.
func Href(path string, s State, d Defaults) string {
	q := Encode(s, d).Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}
