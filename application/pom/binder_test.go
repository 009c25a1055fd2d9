package pom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/infrastructure/browser/fakebrowser"
)

type brokenPage struct {
	Good   *Element
	Broken *Element
}

func (p *brokenPage) DeclareElements(b *Binder) {
	b.Element(&p.Good, "Good", entities.FindBy{CSS: ".ok"})
	b.Element(&p.Broken, "Broken", entities.FindBy{})
}

func TestBindResolvesEveryDeclaration(t *testing.T) {
	doc := fakebrowser.New()
	p := &loginPage{Base: NewBaseFromDocument(doc)}

	require.NoError(t, p.Bind(p))

	assert.Equal(t, "input.user", p.Username.Selector(), "css outranks id")
	assert.Equal(t, "#password", p.Password.Selector())
	assert.Equal(t, "#login-button", p.Submit.Selector())
	assert.Equal(t, ".cart", p.Header.Cart.Selector())
	assert.Equal(t, "#menu", p.Header.Menu.Selector())
	assert.Equal(t, "Username", p.Username.Name())
	assert.Zero(t, doc.Lookups(), "binding never touches the document")
}

func TestBindFailureWritesNothing(t *testing.T) {
	p := &brokenPage{}

	err := Bind(documentSource{doc: fakebrowser.New()}, p)

	var ce *faults.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Broken", ce.Subject)
	assert.Nil(t, p.Good)
	assert.Nil(t, p.Broken)
}

func TestBindRejectsNilAndDuplicates(t *testing.T) {
	src := documentSource{doc: fakebrowser.New()}

	err := Bind(src, bindFunc(func(b *Binder) {
		b.Element(nil, "Orphan", entities.FindBy{CSS: "a"})
	}))
	var ce *faults.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Orphan", ce.Subject)

	var a, b2 *Element
	err = Bind(src, bindFunc(func(b *Binder) {
		b.Element(&a, "Twice", entities.FindBy{CSS: "a"})
		b.Element(&b2, "Twice", entities.FindBy{CSS: "b"})
	}))
	require.ErrorAs(t, err, &ce)
	assert.Nil(t, a)

	require.Error(t, Bind(src, nil))
}

func TestRebindOverwritesHandles(t *testing.T) {
	h := newHarness(t, nil)
	first := h.start("first")
	p := &loginPage{Base: NewBase(first)}
	require.NoError(t, p.Bind(p))
	old := p.Username

	require.NoError(t, p.Bind(p))
	assert.NotSame(t, old, p.Username)
	assert.Equal(t, old.Selector(), p.Username.Selector())

	h.mgr.Teardown()
	second := h.start("second")
	require.NoError(t, p.Rebind(second, p))

	require.NoError(t, p.NavigateToPage())
	assert.True(t, p.IsPageLoaded())

	var se *faults.SessionError
	assert.ErrorAs(t, old.Click(), &se, "a handle from the closed session stays dead")
}

func TestNewElement(t *testing.T) {
	doc := fakebrowser.New()
	doc.Put("[data-testid='save']", fakebrowser.Visible("Save"))

	e, err := NewElement(documentSource{doc: doc}, "Save", entities.FindBy{TestID: "save"})
	require.NoError(t, err)
	text, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "Save", text)

	_, err = NewElement(documentSource{doc: doc}, "Nothing", entities.FindBy{})
	assert.Error(t, err)
}
