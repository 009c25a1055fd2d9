package pages

import (
	"ui_harness/application/pom"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// CartPage shows the selected products
type CartPage struct {
	pom.Base
	Header   HeaderBar
	Items    *pom.Element
	Checkout *pom.Element
	Continue *pom.Element
}

// NewCartPage - catalog factory
func NewCartPage(doc interfaces.Document, opts ...pom.BaseOption) (pom.PageObject, error) {
	p := &CartPage{Base: pom.NewBaseFromDocument(doc, opts...)}
	if err := p.Bind(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CartPage) DeclareElements(b *pom.Binder) {
	b.Component(&p.Header)
	b.Element(&p.Items, "Items", entities.FindBy{CSS: ".cart_item"})
	b.Element(&p.Checkout, "Checkout", entities.FindBy{ID: "checkout"})
	b.Element(&p.Continue, "Continue", entities.FindBy{ID: "continue-shopping"})
}

func (p *CartPage) NavigateToPage() error {
	return p.NavigateTo(pageURL(&p.Base, "cart.html"))
}

func (p *CartPage) IsPageLoaded() bool {
	return pom.SafeLoaded(func() bool { return p.Checkout.IsVisible() })
}

// ItemCount returns how many products are in the cart
func (p *CartPage) ItemCount() int {
	return p.Items.Count()
}
