// Package proxy forwards gateway requests to upstream services.
package proxy

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Route sends every path under Prefix to Target.
type Route struct {
	// Name labels metrics and logs, e.g. "cart".
	Name   string
	Prefix string
	Target *url.URL
	// Rewrite maps the inbound path to the upstream path. Nil forwards it unchanged.
	Rewrite func(path string) string
}

// UpstreamPath is the path the upstream will see for an inbound path.
func (r Route) UpstreamPath(inbound string) string {
	p := inbound
	if r.Rewrite != nil {
		p = r.Rewrite(inbound)
	}
	return joinPath(r.Target.Path, p)
}

// ReplacePrefix rewrites a leading from segment to to, e.g. /uploads/a.jpg -> /static/a.jpg.
func ReplacePrefix(from, to string) func(string) string {
	to = strings.TrimRight(to, "/")
	return func(p string) string {
		if !hasPathPrefix(p, from) {
			return p
		}
		rest := strings.TrimPrefix(p, from)
		out := to + rest
		if out == "" {
			return "/"
		}
		return out
	}
}

// Table is the immutable prefix -> upstream mapping. Longer prefixes win.
type Table struct {
	routes []Route
}

// RouteSpec is the configuration form of a route.
type RouteSpec struct {
	Name    string
	Prefix  string
	Target  string
	Rewrite func(string) string
}

func NewTable(specs ...RouteSpec) (*Table, error) {
	t := &Table{routes: make([]Route, 0, len(specs))}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if !strings.HasPrefix(s.Prefix, "/") {
			return nil, fmt.Errorf("proxy: route %q: prefix %q must start with /", s.Name, s.Prefix)
		}
		prefix := strings.TrimRight(s.Prefix, "/")
		if prefix == "" {
			prefix = "/"
		}
		if seen[prefix] {
			return nil, fmt.Errorf("proxy: duplicate prefix %q", prefix)
		}
		seen[prefix] = true

		target, err := url.Parse(s.Target)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("proxy: route %q: invalid target %q", s.Name, s.Target)
		}
		t.routes = append(t.routes, Route{Name: s.Name, Prefix: prefix, Target: target, Rewrite: s.Rewrite})
	}
	sort.SliceStable(t.routes, func(i, j int) bool {
		return len(t.routes[i].Prefix) > len(t.routes[j].Prefix)
	})
	return t, nil
}

// Match finds the route for path on a segment boundary: /api/cart matches
// /api/cart and /api/cart/items but not /api/cartography.
func (t *Table) Match(path string) (Route, bool) {
	for _, r := range t.routes {
		if hasPathPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Route{}, false
}

func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func joinPath(a, b string) string {
	if a == "" || a == "/" {
		if b == "" {
			return "/"
		}
		return b
	}
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}
	return a + b
}
