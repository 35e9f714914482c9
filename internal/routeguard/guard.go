package routeguard

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Outcome is the verdict for one navigation.
type Outcome string

const (
	// OutcomeLoading means the session is still being decided; show a
	// placeholder and do not redirect.
	OutcomeLoading Outcome = "loading"
	OutcomeRender   Outcome = "render"
	OutcomeRedirect Outcome = "redirect"
)

// Decision is the result of evaluating a navigation.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	// Location is the redirect target.
	Location string `json:"location,omitempty"`
	// From is the originally requested location, kept for the return
	// after login.
	From   string            `json:"from,omitempty"`
	Policy Policy            `json:"policy"`
	Params map[string]string `json:"params,omitempty"`
}

// Decide applies policy to a navigation to requested.
func Decide(policy Policy, loading, authenticated bool, requested string) Decision {
	d := Decision{Policy: policy}
	switch {
	case loading:
		d.Outcome = OutcomeLoading
	case policy.RequiresAuth && !authenticated:
		d.Outcome = OutcomeRedirect
		d.Location = LoginPath
		d.From = requested
	case policy.RequiresGuest && authenticated:
		d.Outcome = OutcomeRedirect
		d.Location = HomePath
	default:
		d.Outcome = OutcomeRender
	}
	return d
}

// Table resolves paths to policies. It is read-only after construction.
type Table struct {
	policies []Policy
	byPath   map[string]Policy
	mux      *chi.Mux
}

// NewTable builds a table from policies. Paths use chi patterns such as
// "/product/{id}".
func NewTable(policies []Policy) (*Table, error) {
	t := &Table{
		policies: make([]Policy, 0, len(policies)),
		byPath:   make(map[string]Policy, len(policies)),
		mux:      chi.NewMux(),
	}
	for _, p := range policies {
		if !strings.HasPrefix(p.Path, "/") {
			return nil, fmt.Errorf("route %q must start with /", p.Path)
		}
		if p.RequiresAuth && p.RequiresGuest {
			return nil, fmt.Errorf("route %q cannot require both auth and guest", p.Path)
		}
		if _, dup := t.byPath[p.Path]; dup {
			return nil, fmt.Errorf("route %q declared twice", p.Path)
		}
		t.byPath[p.Path] = p
		t.policies = append(t.policies, p)
		t.mux.Get(p.Path, http.NotFound)
	}
	return t, nil
}

// Default returns the table of DefaultPolicies.
func Default() *Table {
	t, err := NewTable(DefaultPolicies())
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the policy matching path and its URL parameters. Static
// segments win over parameters, so "/category/books" resolves to its own
// page rather than "/category/{category}".
func (t *Table) Lookup(path string) (Policy, map[string]string, bool) {
	path = cleanPath(path)
	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Fallback, nil, false
	}
	policy, ok := t.byPath[rctx.RoutePattern()]
	if !ok {
		return Fallback, nil, false
	}
	var params map[string]string
	if n := len(rctx.URLParams.Keys); n > 0 {
		params = make(map[string]string, n)
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return policy, params, true
}

// Evaluate decides a navigation to requested, which may carry a query
// string. Unknown paths redirect home whatever the session state.
func (t *Table) Evaluate(requested string, loading, authenticated bool) Decision {
	path := requested
	if u, err := url.Parse(requested); err == nil {
		path = u.Path
	}
	policy, params, ok := t.Lookup(path)
	if !ok {
		return Decision{Outcome: OutcomeRedirect, Location: HomePath, Policy: policy}
	}
	d := Decide(policy, loading, authenticated, requested)
	d.Params = params
	return d
}

// Navigation lists the routes shown in navigation for the given session.
func (t *Table) Navigation(authenticated bool) []Policy {
	return t.filter(func(p Policy) bool {
		if !p.ShowInNav {
			return false
		}
		if p.RequiresAuth && !authenticated {
			return false
		}
		return !(p.RequiresGuest && authenticated)
	})
}

// Protected lists routes behind sign-in.
func (t *Table) Protected() []Policy {
	return t.filter(func(p Policy) bool { return p.RequiresAuth })
}

// Public lists routes open to everyone.
func (t *Table) Public() []Policy {
	return t.filter(Policy.Public)
}

func (t *Table) filter(keep func(Policy) bool) []Policy {
	out := []Policy{}
	for _, p := range t.policies {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func cleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
