package mediasource

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Route sends paths with a given suffix to an opener
type Route struct {
	Suffix string
	Opener Opener
}

// Router picks an Opener by path suffix, falling back to a default.
type Router struct {
	routes   []Route
	fallback Opener
}

// NewRouter creates a router. fallback may be nil, in which case unmatched
// paths fail with ErrDecode.
func NewRouter(fallback Opener, routes ...Route) *Router {
	return &Router{routes: routes, fallback: fallback}
}

// Open implements Opener.
func (r *Router) Open(path string, withAudio bool) (Source, error) {
	lower := strings.ToLower(path)
	route, ok := lo.Find(r.routes, func(rt Route) bool {
		return strings.HasSuffix(lower, strings.ToLower(rt.Suffix))
	})
	if ok {
		return route.Opener.Open(path, withAudio)
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("mediasource: no opener for %s: %w", path, ErrDecode)
	}
	return r.fallback.Open(path, withAudio)
}
