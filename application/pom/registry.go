package pom

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"ui_harness/application/session"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// PageKey identifies a page object type in a catalog
type PageKey string

// Factory builds a page over a raw document
type Factory func(doc interfaces.Document, opts ...BaseOption) (PageObject, error)

// Supplier builds a page for a session context. Suppliers take precedence
// over catalog factories.
type Supplier func(sc *session.Context) (PageObject, error)

// Catalog is the explicit table of page factories known to a suite
type Catalog struct {
	factories map[PageKey]Factory
}

// NewCatalog - creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[PageKey]Factory)}
}

// Register adds or replaces the factory for key
func (c *Catalog) Register(key PageKey, f Factory) *Catalog {
	c.factories[key] = f
	return c
}

// Lookup returns the factory for key
func (c *Catalog) Lookup(key PageKey) (Factory, bool) {
	if c == nil {
		return nil, false
	}
	f, ok := c.factories[key]
	return f, ok
}

// Keys returns the registered keys in sorted order
func (c *Catalog) Keys() []PageKey {
	keys := make([]PageKey, 0, len(c.factories))
	for k := range c.factories {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Registry caches at most one page object per key for one session context.
// It clears itself when the context closes.
type Registry struct {
	sc      *session.Context
	catalog *Catalog

	mu        sync.Mutex
	pages     map[PageKey]PageObject
	suppliers map[PageKey]Supplier
	building  singleflight.Group
}

// NewRegistry - creates the page registry of one session context
func NewRegistry(sc *session.Context, catalog *Catalog) *Registry {
	r := &Registry{
		sc:        sc,
		catalog:   catalog,
		pages:     make(map[PageKey]PageObject),
		suppliers: make(map[PageKey]Supplier),
	}
	sc.OnClose(r.Clear)
	return r
}

// RegisterSupplier installs a supplier for key
func (r *Registry) RegisterSupplier(key PageKey, s Supplier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[key] = s
}

// GetOrCreate returns the cached page for key, building it on first use.
// Builds run outside the registry lock so a supplier may request other
// pages; concurrent callers for one key share a single build. A supplier
// must not request its own key.
func (r *Registry) GetOrCreate(key PageKey) (PageObject, error) {
	if p, ok, err := r.cached(key); ok || err != nil {
		return p, err
	}

	v, err, _ := r.building.Do(string(key), func() (interface{}, error) {
		if p, ok, err := r.cached(key); ok || err != nil {
			return p, err
		}
		p, err := r.build(key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.sc.IsClosed() {
			return nil, closedErr(key)
		}
		r.pages[key] = p
		r.sc.Logger().WithField("page", key).Debug("page object created")
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(PageObject), nil
}

func (r *Registry) cached(key PageKey) (PageObject, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[key]; ok {
		return p, true, nil
	}
	if r.sc.IsClosed() {
		return nil, false, closedErr(key)
	}
	return nil, false, nil
}

func closedErr(key PageKey) error {
	return &faults.SessionError{Op: fmt.Sprintf("create page %s", key), Err: faults.ErrSessionClosed}
}

func (r *Registry) build(key PageKey) (PageObject, error) {
	r.mu.Lock()
	s, ok := r.suppliers[key]
	r.mu.Unlock()
	if ok {
		return s(r.sc)
	}
	f, ok := r.catalog.Lookup(key)
	if !ok {
		return nil, &faults.ConfigurationError{Subject: string(key), Reason: "page is not in the catalog"}
	}
	doc, err := r.sc.Document()
	if err != nil {
		return nil, err
	}
	return f(doc,
		WithTimeout(r.sc.DefaultTimeout()),
		WithLogger(r.sc.Logger()),
		WithReporter(r.sc.Reporter()),
		WithConfig(r.sc.Config()),
	)
}

// Get returns the page for key as T
func Get[T PageObject](r *Registry, key PageKey) (T, error) {
	var zero T
	p, err := r.GetOrCreate(key)
	if err != nil {
		return zero, err
	}
	t, ok := p.(T)
	if !ok {
		return zero, &faults.ConfigurationError{
			Subject: string(key),
			Reason:  fmt.Sprintf("page is %T, not %T", p, zero),
		}
	}
	return t, nil
}

// Clear drops every cached page
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = make(map[PageKey]PageObject)
}

// Remove drops the cached page for key
func (r *Registry) Remove(key PageKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, key)
}

// IsCached reports whether a page for key is cached
func (r *Registry) IsCached(key PageKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pages[key]
	return ok
}

// Len returns the number of cached pages
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}
