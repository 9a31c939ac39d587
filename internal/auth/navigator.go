package auth

import (
	"context"
	"sync"
)

const (
	RouteLogin     = "/"
	RouteDashboard = "/dashboard"
)

type Navigator interface {
	Navigate(ctx context.Context, route string)
}

type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) { f(ctx, route) }

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, string) {}

// Recorder keeps every navigation it was asked for.
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *Recorder) Navigate(_ context.Context, route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func (r *Recorder) Count(route string) int {
	n := 0
	for _, got := range r.Routes() {
		if got == route {
			n++
		}
	}
	return n
}

type redirectKey struct{}

// Redirect collects the navigation requested while one call was handled.
type Redirect struct {
	mu    sync.Mutex
	route string
}

func (r *Redirect) Route() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

func WithRedirect(ctx context.Context) (context.Context, *Redirect) {
	r := &Redirect{}
	return context.WithValue(ctx, redirectKey{}, r), r
}

// ContextNavigator stores the route on the Redirect carried by ctx, if any,
// and then forwards to Next.
type ContextNavigator struct {
	Next Navigator
}

func (n ContextNavigator) Navigate(ctx context.Context, route string) {
	if r, ok := ctx.Value(redirectKey{}).(*Redirect); ok {
		r.mu.Lock()
		r.route = route
		r.mu.Unlock()
	}
	if n.Next != nil {
		n.Next.Navigate(ctx, route)
	}
}
