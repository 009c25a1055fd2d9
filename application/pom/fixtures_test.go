package pom

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
	"ui_harness/infrastructure/browser/fakebrowser"
	"ui_harness/infrastructure/config"
)

const (
	loginURL     = "https://shop.test/"
	inventoryURL = "https://shop.test/inventory.html"
)

// shop routes a tiny two-page store into doc
func shop(doc *fakebrowser.Document) {
	doc.Route(loginURL, func(d *fakebrowser.Document) {
		d.SetTitle("Swag Labs")
		d.Put("input.user", &fakebrowser.Element{Visible: true})
		d.Put("#password", &fakebrowser.Element{Visible: true})
		d.Put("#login-button", fakebrowser.Visible("Login"))
		d.Put(".cart", fakebrowser.Visible(""))
		d.Put("#menu", fakebrowser.Visible("Open Menu"))
	})
	doc.Route(inventoryURL, func(d *fakebrowser.Document) {
		d.SetTitle("Swag Labs")
		d.Put(".title", fakebrowser.Visible("Products"))
		d.Put(".inventory_item", fakebrowser.Visible("Backpack"), fakebrowser.Visible("Bike Light"), fakebrowser.Visible("Onesie"))
		d.Put(".cart", fakebrowser.Visible(""))
		d.Put("#menu", fakebrowser.Visible("Open Menu"))
	})
}

type headerBar struct {
	Cart *Element
	Menu *Element
}

func (h *headerBar) DeclareElements(b *Binder) {
	b.Element(&h.Cart, "Cart", entities.FindBy{CSS: ".cart"})
	b.Element(&h.Menu, "Menu", entities.FindBy{ID: "menu"})
}

type loginPage struct {
	Base
	Header   headerBar
	Username *Element
	Password *Element
	Submit   *Element
}

func (p *loginPage) DeclareElements(b *Binder) {
	b.Component(&p.Header)
	b.Element(&p.Username, "Username", entities.FindBy{CSS: "input.user", ID: "user-name"})
	b.Element(&p.Password, "Password", entities.FindBy{ID: "password"})
	b.Element(&p.Submit, "Submit", entities.FindBy{ID: "login-button"})
}

func (p *loginPage) NavigateToPage() error { return p.NavigateTo(loginURL) }

func (p *loginPage) IsPageLoaded() bool {
	return SafeLoaded(func() bool {
		return p.Username.IsVisible() && p.Password.IsVisible() && p.Submit.IsVisible()
	})
}

func newLoginPage(doc interfaces.Document, opts ...BaseOption) (PageObject, error) {
	p := &loginPage{Base: NewBaseFromDocument(doc, opts...)}
	if err := p.Bind(p); err != nil {
		return nil, err
	}
	return p, nil
}

type inventoryPage struct {
	Base
	Header headerBar
	Title  *Element
	Items  *Element
}

func (p *inventoryPage) DeclareElements(b *Binder) {
	b.Component(&p.Header)
	b.Element(&p.Title, "Title", entities.FindBy{CSS: ".title"})
	b.Element(&p.Items, "Items", entities.FindBy{CSS: ".inventory_item"})
}

func (p *inventoryPage) NavigateToPage() error { return p.NavigateTo(inventoryURL) }

func (p *inventoryPage) IsPageLoaded() bool {
	return SafeLoaded(func() bool { return p.Title.IsVisible() && p.Title.AssertTextEquals("Products") == nil })
}

func newInventoryPage(doc interfaces.Document, opts ...BaseOption) (PageObject, error) {
	p := &inventoryPage{Base: NewBaseFromDocument(doc, opts...)}
	if err := p.Bind(p); err != nil {
		return nil, err
	}
	return p, nil
}

const (
	keyLogin     PageKey = "login"
	keyInventory PageKey = "inventory"
)

func testCatalog() *Catalog {
	return NewCatalog().
		Register(keyLogin, newLoginPage).
		Register(keyInventory, newInventoryPage)
}

// harness starts sessions on fake backends wired with the shop routes
type harness struct {
	t        *testing.T
	mgr      *session.Manager
	launched []*fakebrowser.Backend
}

func newHarness(t *testing.T, reporter interfaces.Reporter) *harness {
	t.Helper()
	h := &harness{t: t}
	logger, _ := test.NewNullLogger()
	cfg := config.FromMap(map[string]interface{}{interfaces.KeyDefaultTimeout: 1})
	opts := []session.Option{session.WithLogger(logger)}
	if reporter != nil {
		opts = append(opts, session.WithReporter(reporter))
	}
	h.mgr = session.NewManager(cfg, session.Launchers{
		Web: func(ctx context.Context, o session.LaunchOptions) (interfaces.Backend, error) {
			b := fakebrowser.NewBackend(entities.BackendLegacy, entities.PlatformWeb)
			shop(b.Doc)
			h.launched = append(h.launched, b)
			return b, nil
		},
	}, opts...)
	return h
}

func (h *harness) start(name string) *session.Context {
	h.t.Helper()
	sc, err := h.mgr.Initialize(context.Background(), entities.Scenario{Name: name})
	require.NoError(h.t, err)
	return sc
}

func (h *harness) doc() *fakebrowser.Document {
	return h.launched[len(h.launched)-1].Doc
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) RecordResult(step, message string, severity entities.Severity) {
	m.Called(step, message, severity)
}
