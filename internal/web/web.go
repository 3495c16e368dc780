// Package web holds the server-rendered admin pages.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"partialURL": PartialURL,
	"refreshURL": RefreshURL,
	"add":        func(a, b int) int { return a + b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2 Jan 2006 15:04")
	},
}

// Templates parses the embedded templates. Each file is addressed by its base name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}

// PartialURL maps a page href to the href of its table fragment, keeping the query.
func PartialURL(href string) string {
	path, query, _ := strings.Cut(href, "?")
	out := strings.TrimSuffix(path, "/") + "/table"
	if query != "" {
		out += "?" + query
	}
	return out
}

// RefreshURL is the fragment href that bypasses the cached page.
func RefreshURL(href string) string {
	out := PartialURL(href)
	if strings.Contains(out, "?") {
		return out + "&refresh=1"
	}
	return out + "?refresh=1"
}
