package server

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Route is a node in the declarative route tree.
//
// Paths are relative to the parent. A node without a handler only contributes its path,
// layout and guard to its children. Layout and Guarded are inherited unless a child sets them.
type Route struct {
	Name     string
	Path     string
	Methods  []string // defaults to GET
	Layout   string
	Guarded  bool
	Handler  http.Handler
	Children []*Route
}

// RouteInfo describes the matched route of a request.
type RouteInfo struct {
	Name    string
	Pattern string
	Layout  string
	Guarded bool
}

// CompileOpts supplies the pieces [Compile] wires around handlers.
type CompileOpts struct {
	Guard    Middleware   // Guard wraps every guarded route
	NotFound http.Handler // NotFound serves every path no route matches
}

// NotFoundRoute is the name given to the catch-all route.
const NotFoundRoute = "not-found"

type routeKey struct{}

// WithRoute stores the matched route in ctx.
func WithRoute(ctx context.Context, info RouteInfo) context.Context {
	return context.WithValue(ctx, routeKey{}, info)
}

// RouteFrom returns the matched route stored by [Compile].
func RouteFrom(ctx context.Context) (RouteInfo, bool) {
	info, ok := ctx.Value(routeKey{}).(RouteInfo)
	return info, ok
}

// Compile walks the tree and registers every handler on r. It returns the registered
// routes in registration order. Route names must be unique.
func Compile(r Router, root *Route, opts CompileOpts) ([]RouteInfo, error) {
	var (
		compiled []RouteInfo
		seen     = map[string]bool{}
	)

	var walk func(node *Route, parentPath, layout string, guarded bool) error
	walk = func(node *Route, parentPath, layout string, guarded bool) error {
		full := joinPath(parentPath, node.Path)
		if node.Layout != "" {
			layout = node.Layout
		}
		guarded = guarded || node.Guarded

		if node.Handler != nil {
			if node.Name == "" {
				return fmt.Errorf("route %s has a handler but no name", full)
			}

			methods := node.Methods
			if len(methods) == 0 {
				methods = []string{http.MethodGet}
			}

			for _, method := range methods {
				key := node.Name + " " + method
				if seen[key] {
					return fmt.Errorf("duplicate route %q for %s", node.Name, method)
				}
				seen[key] = true

				p := full
				if p == "/" {
					p = "/{$}"
				}
				info := RouteInfo{Name: node.Name, Pattern: pattern(method, p), Layout: layout, Guarded: guarded}

				h := node.Handler
				if guarded {
					if opts.Guard == nil {
						return fmt.Errorf("route %q is guarded but no guard was supplied", node.Name)
					}
					h = opts.Guard(h)
				}
				r.HandleNamed(node.Name, method, p, withRoute(info, h))
				compiled = append(compiled, info)
			}
		}

		for _, child := range node.Children {
			if err := walk(child, full, layout, guarded); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, "/", "", false); err != nil {
		return nil, err
	}

	if opts.NotFound != nil {
		info := RouteInfo{Name: NotFoundRoute, Pattern: "/", Layout: root.Layout}
		r.HandleNamed(NotFoundRoute, "", "/", withRoute(info, opts.NotFound))
		compiled = append(compiled, info)
	}

	return compiled, nil
}

func withRoute(info RouteInfo, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(WithRoute(r.Context(), info)))
	})
}

// joinPath joins route segments, keeping "/" for the root.
func joinPath(parent, child string) string {
	if child == "" {
		return parent
	}
	if strings.HasPrefix(child, "/") {
		return path.Clean(child)
	}
	return path.Clean(parent + "/" + child)
}
