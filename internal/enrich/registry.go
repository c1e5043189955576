package enrich

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Registry holds the available providers by name, so the chain order can
// come from configuration
type Registry struct {
	providers map[string]Provider
	posts     map[string]PostSource
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		posts:     make(map[string]PostSource),
	}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

func (r *Registry) RegisterPosts(p PostSource) {
	r.posts[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ListPosts names the registered post sources
func (r *Registry) ListPosts() []string {
	names := make([]string, 0, len(r.posts))
	for name := range r.posts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LinkSpec names a provider and its retry budget
type LinkSpec struct {
	Name     string
	Attempts uint
}

// Chain builds the profile chain in the given order
func (r *Registry) Chain(specs []LinkSpec) ([]Link, error) {
	links := make([]Link, 0, len(specs))
	for _, s := range specs {
		p, ok := r.providers[s.Name]
		if !ok {
			return nil, fmt.Errorf("unknown enrichment provider %q (available: %v)", s.Name, r.List())
		}
		links = append(links, Link{Provider: p, Attempts: s.Attempts})
	}
	return links, nil
}

// PostChain builds the recent-posts chain in the given order
func (r *Registry) PostChain(specs []LinkSpec) ([]PostLink, error) {
	links := make([]PostLink, 0, len(specs))
	for _, s := range specs {
		p, ok := r.posts[s.Name]
		if !ok {
			return nil, fmt.Errorf("unknown posts provider %q", s.Name)
		}
		links = append(links, PostLink{Source: p, Attempts: s.Attempts})
	}
	return links, nil
}
