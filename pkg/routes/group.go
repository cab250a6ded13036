package routes

import (
	"net/http"

	"github.com/JaimeStill/rapport/pkg/middleware"
)

// Group organizes routes under a common prefix. Middleware applies to every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware []middleware.Func
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, inherited []middleware.Func, group Group) {
	prefix := parentPrefix + group.Prefix
	stack := append(inherited[:len(inherited):len(inherited)], group.Middleware...)

	for _, route := range group.Routes {
		mux.Handle(route.pattern(prefix), middleware.Chain(route.Handler, stack...))
	}
	for _, child := range group.Children {
		registerGroup(mux, prefix, stack, child)
	}
}
