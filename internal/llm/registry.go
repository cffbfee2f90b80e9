package llm

import (
	"sort"
	"strings"
)

type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.RegisterAs(p.Name(), p)
}

// RegisterAs registers a provider under an explicit name so that the
// lookup key can differ from the provider's own Name, e.g. a config
// alias like "anthropic" for the claude provider.
func (r *Registry) RegisterAs(name string, p Provider) {
	if r == nil || p == nil {
		return
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[name] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil || r.providers == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// Available returns registered provider names sorted alphabetically.
func (r *Registry) Available() []string {
	if r == nil || r.providers == nil {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
