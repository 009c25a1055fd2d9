package pom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/infrastructure/browser/fakebrowser"
)

func element(t *testing.T, doc *fakebrowser.Document, by entities.FindBy) *Element {
	t.Helper()
	e, err := NewElement(documentSource{doc: doc}, "Target", by)
	require.NoError(t, err)
	return e.WithTimeout(1)
}

func TestClickVariants(t *testing.T) {
	doc := fakebrowser.New()
	btn := fakebrowser.Visible("Go")
	doc.Put("#go", btn)
	e := element(t, doc, entities.FindBy{ID: "go"})

	require.NoError(t, e.Click())
	require.NoError(t, e.DoubleClick())
	require.NoError(t, e.RightClick())

	var ops []string
	for _, a := range doc.Actions() {
		ops = append(ops, a.Op)
	}
	assert.Equal(t, []string{"click", "double-click", "right-click"}, ops)
	assert.Equal(t, 4, btn.ClickCount)
}

func TestFillTypeClear(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("[placeholder='Username']", &fakebrowser.Element{Visible: true})
	e := element(t, doc, entities.FindBy{Placeholder: "Username"})

	require.NoError(t, e.Fill("standard"))
	require.NoError(t, e.TypeWithDelay("_user", 10*time.Millisecond))
	v, err := e.Value()
	require.NoError(t, err)
	assert.Equal(t, "standard_user", v)

	require.NoError(t, e.Clear())
	require.NoError(t, e.AssertValueEquals(""))
}

func TestInteractionErrorCarriesSelector(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("#save", &fakebrowser.Element{Visible: true, Disabled: true})
	e := element(t, doc, entities.FindBy{ID: "save"}).WithTimeout(0)

	err := e.Click()

	var ie *faults.InteractionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "#save", ie.Selector)
	assert.Equal(t, "click", ie.Op)
	assert.False(t, faults.IsFatal(err))
}

func TestHandleReResolvesEveryCall(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put(".title", fakebrowser.Visible("Products"))
	e := element(t, doc, entities.FindBy{CSS: ".title"})

	text, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "Products", text)

	doc.Put(".title", fakebrowser.Visible("Your Cart"))
	text, err = e.Text()
	require.NoError(t, err)
	assert.Equal(t, "Your Cart", text)
	assert.Equal(t, 2, doc.Lookups())
}

func TestClosedDocument(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("#go", fakebrowser.Visible("Go"))
	e := element(t, doc, entities.FindBy{ID: "go"})
	doc.Close()

	var se *faults.SessionError
	assert.ErrorAs(t, e.Click(), &se)
	assert.ErrorIs(t, e.Click(), faults.ErrSessionClosed)
	assert.False(t, e.IsVisible())
	assert.False(t, e.IsEnabled())
	assert.Zero(t, e.Count())
	assert.False(t, e.WaitForVisible(0))

	_, err := e.Text()
	assert.True(t, faults.IsFatal(err))
}

func TestQueries(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("#terms", &fakebrowser.Element{Visible: true, Checked: true, ReadOnly: true})
	e := element(t, doc, entities.FindBy{ID: "terms"})

	assert.True(t, e.IsVisible())
	assert.False(t, e.IsHidden())
	assert.True(t, e.IsEnabled())
	assert.True(t, e.IsChecked())
	assert.False(t, e.IsEditable())
	assert.Equal(t, 1, e.Count())

	missing := element(t, doc, entities.FindBy{ID: "nope"})
	assert.False(t, missing.IsVisible())
	assert.True(t, missing.IsHidden())
	assert.False(t, missing.IsEnabled(), "a failed query maps to false")
	assert.Zero(t, missing.Count())
}

func TestIndexedDerivation(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put(".item", fakebrowser.Visible("Backpack"), fakebrowser.Visible("Bike Light"), fakebrowser.Visible("Onesie"))
	items := element(t, doc, entities.FindBy{CSS: ".item"})

	assert.Equal(t, 3, items.Count())
	assert.Equal(t, ".item >> nth=1", items.Nth(1).Selector())
	assert.Equal(t, ".item >> nth=0", items.First().Selector())
	assert.Equal(t, ".item >> nth=-1", items.Last().Selector())

	first, err := items.First().Text()
	require.NoError(t, err)
	last, err := items.Last().Text()
	require.NoError(t, err)
	assert.Equal(t, "Backpack", first)
	assert.Equal(t, "Onesie", last)

	assert.Zero(t, items.Nth(7).Count())
	assert.Equal(t, "Target[1]", items.Nth(1).Name())
	assert.Equal(t, items.Timeout(), items.Nth(1).Timeout())
}

func TestWithin(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put(".item >> nth=0 >> .price", fakebrowser.Visible("$29.99"))
	items := element(t, doc, entities.FindBy{CSS: ".item"})

	price, err := items.First().Within("Price", ".price").Text()
	require.NoError(t, err)
	assert.Equal(t, "$29.99", price)
}

func TestWaits(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("#toast", &fakebrowser.Element{Text: "Saved"})
	e := element(t, doc, entities.FindBy{ID: "toast"})

	go func() {
		time.Sleep(20 * time.Millisecond)
		doc.Put("#toast", fakebrowser.Visible("Saved"))
	}()
	assert.True(t, e.WaitForVisible(1))
	assert.False(t, e.WaitForHidden(0))

	doc.Remove("#toast")
	assert.True(t, e.WaitForHidden(1))
}

func TestSelectScrollDrag(t *testing.T) {
	doc := fakebrowser.New()
	sort := &fakebrowser.Element{Visible: true, Options: []fakebrowser.Option{
		{Value: "az", Label: "Name (A to Z)"},
		{Value: "lohi", Label: "Price (low to high)"},
	}}
	doc.Put(".sort", sort)
	doc.Put("#card", &fakebrowser.Element{Visible: true, OffScreen: true})
	doc.Put("#bin", fakebrowser.Visible(""))

	s := element(t, doc, entities.FindBy{CSS: ".sort"})
	require.NoError(t, s.SelectByValue("lohi"))
	assert.Equal(t, "lohi", sort.Value)
	require.NoError(t, s.SelectByText("Name (A to Z)"))
	assert.Equal(t, "az", sort.Value)

	var ie *faults.InteractionError
	assert.ErrorAs(t, s.WithTimeout(0).SelectByValue("hilo"), &ie)

	card := element(t, doc, entities.FindBy{ID: "card"})
	require.Error(t, card.AssertInViewport())
	require.NoError(t, card.ScrollIntoView())
	require.NoError(t, card.AssertInViewport())

	bin := element(t, doc, entities.FindBy{ID: "bin"})
	require.NoError(t, card.DragTo(bin))
	actions := doc.Actions()
	last := actions[len(actions)-1]
	assert.Equal(t, "drag", last.Op)
	assert.Equal(t, "#bin", last.Arg)

	png, err := card.Screenshot()
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestHoverFocus(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("#a", fakebrowser.Visible("a"))
	doc.Put("#b", fakebrowser.Visible("b"))
	a := element(t, doc, entities.FindBy{ID: "a"})
	b := element(t, doc, entities.FindBy{ID: "b"})

	require.NoError(t, a.Hover())
	require.NoError(t, a.Focus())
	require.NoError(t, a.AssertFocused())
	require.NoError(t, b.Focus())
	require.NoError(t, a.AssertNotFocused())
	require.NoError(t, b.AssertFocused())
}

func TestContentRetrieval(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("a.cart", &fakebrowser.Element{
		Visible: true,
		Text:    "2",
		HTML:    "<span>2</span>",
		Attrs:   map[string]string{"href": "/cart.html"},
	})
	e := element(t, doc, entities.FindBy{CSS: "a.cart"})

	href, err := e.Attribute("href")
	require.NoError(t, err)
	assert.Equal(t, "/cart.html", href)

	html, err := e.InnerHTML()
	require.NoError(t, err)
	assert.Equal(t, "<span>2</span>", html)

	_, err = e.Nth(3).WithTimeout(0).Text()
	var ie *faults.InteractionError
	assert.ErrorAs(t, err, &ie)
}
