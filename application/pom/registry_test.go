package pom

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/application/session"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

func TestGetOrCreateCachesPerKey(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRegistry(h.start("cache"), testCatalog())

	first, err := r.GetOrCreate(keyLogin)
	require.NoError(t, err)
	second, err := r.GetOrCreate(keyLogin)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, r.IsCached(keyLogin))
	assert.False(t, r.IsCached(keyInventory))
	assert.Equal(t, 1, r.Len())

	r.Remove(keyLogin)
	third, err := r.GetOrCreate(keyLogin)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestGetTyped(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRegistry(h.start("typed"), testCatalog())

	login, err := Get[*loginPage](r, keyLogin)
	require.NoError(t, err)
	require.NoError(t, login.NavigateToPage())
	assert.True(t, login.IsPageLoaded())

	_, err = Get[*inventoryPage](r, keyLogin)
	var ce *faults.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestUnknownPage(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRegistry(h.start("unknown"), testCatalog())

	_, err := r.GetOrCreate("checkout")
	var ce *faults.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "checkout", ce.Subject)
	assert.Zero(t, r.Len())
}

func TestSupplierWinsOverCatalog(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.start("supplier")
	r := NewRegistry(sc, testCatalog())

	var supplied *loginPage
	r.RegisterSupplier(keyLogin, func(sc *session.Context) (PageObject, error) {
		supplied = &loginPage{Base: NewBase(sc)}
		return supplied, supplied.Bind(supplied)
	})

	p, err := r.GetOrCreate(keyLogin)
	require.NoError(t, err)
	assert.Same(t, supplied, p)
}

type checkoutPage struct {
	*loginPage
}

func TestSupplierBuildsFromOtherPages(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRegistry(h.start("composed"), testCatalog())

	const keyCheckout PageKey = "checkout"
	r.RegisterSupplier(keyCheckout, func(sc *session.Context) (PageObject, error) {
		login, err := Get[*loginPage](r, keyLogin)
		if err != nil {
			return nil, err
		}
		return checkoutPage{login}, nil
	})

	done := make(chan struct{})
	var (
		p   PageObject
		err error
	)
	go func() {
		defer close(done)
		p, err = r.GetOrCreate(keyCheckout)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("GetOrCreate did not return while the supplier used the registry")
	}
	require.NoError(t, err)

	login, lerr := Get[*loginPage](r, keyLogin)
	require.NoError(t, lerr)
	assert.Same(t, login, p.(checkoutPage).loginPage)
	assert.True(t, r.IsCached(keyCheckout))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryClearsWhenSessionCloses(t *testing.T) {
	h := newHarness(t, nil)
	r := NewRegistry(h.start("first"), testCatalog())

	old, err := Get[*loginPage](r, keyLogin)
	require.NoError(t, err)
	require.NoError(t, old.NavigateToPage())

	h.mgr.Teardown()
	assert.Zero(t, r.Len())

	_, err = r.GetOrCreate(keyLogin)
	var se *faults.SessionError
	require.ErrorAs(t, err, &se)

	fresh := NewRegistry(h.start("second"), testCatalog())
	p, err := Get[*loginPage](fresh, keyLogin)
	require.NoError(t, err)
	assert.NotSame(t, old, p)
	require.NoError(t, p.NavigateToPage())
	assert.True(t, p.IsPageLoaded())

	assert.ErrorIs(t, old.Submit.Click(), faults.ErrSessionClosed, "old handles never reach the new session")
}

func TestConcurrentGetOrCreateBuildsOnce(t *testing.T) {
	h := newHarness(t, nil)
	var builds int32
	catalog := NewCatalog().Register(keyLogin, func(doc interfaces.Document, opts ...BaseOption) (PageObject, error) {
		atomic.AddInt32(&builds, 1)
		return newLoginPage(doc, opts...)
	})
	r := NewRegistry(h.start("race"), catalog)

	var wg sync.WaitGroup
	pages := make([]PageObject, 8)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i], _ = r.GetOrCreate(keyLogin)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&builds))
	for _, p := range pages {
		assert.Same(t, pages[0], p)
	}
}

func TestCatalogKeys(t *testing.T) {
	assert.Equal(t, []PageKey{keyInventory, keyLogin}, testCatalog().Keys())
	_, ok := (*Catalog)(nil).Lookup(keyLogin)
	assert.False(t, ok)
}
