package pages

import (
	"fmt"
	"strings"

	"ui_harness/application/pom"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// Sort orders offered by the product list
const (
	SortNameAsc   = "az"
	SortNameDesc  = "za"
	SortPriceAsc  = "lohi"
	SortPriceDesc = "hilo"
)

// InventoryPage lists the products
type InventoryPage struct {
	pom.Base
	Header HeaderBar
	Title  *pom.Element
	Items  *pom.Element
	Sort   *pom.Element
}

// NewInventoryPage - catalog factory
func NewInventoryPage(doc interfaces.Document, opts ...pom.BaseOption) (pom.PageObject, error) {
	p := &InventoryPage{Base: pom.NewBaseFromDocument(doc, opts...)}
	if err := p.Bind(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *InventoryPage) DeclareElements(b *pom.Binder) {
	b.Component(&p.Header)
	b.Element(&p.Title, "Title", entities.FindBy{CSS: ".title"})
	b.Element(&p.Items, "Items", entities.FindBy{CSS: ".inventory_item"})
	b.Element(&p.Sort, "Sort", entities.FindBy{TestID: "product-sort-container"})
}

func (p *InventoryPage) NavigateToPage() error {
	return p.NavigateTo(pageURL(&p.Base, "inventory.html"))
}

func (p *InventoryPage) IsPageLoaded() bool {
	return pom.SafeLoaded(func() bool {
		// the visibility check keeps the title read from waiting when the page is elsewhere
		return p.Title.IsVisible() && p.Title.AssertTextEquals("Products") == nil && p.Items.Count() > 0
	})
}

// Item returns the handle of the index-th product card
func (p *InventoryPage) Item(index int) *pom.Element {
	return p.Items.Nth(index)
}

// ItemName reads the product name of the index-th card
func (p *InventoryPage) ItemName(index int) (string, error) {
	text, err := p.Item(index).Within("Name", ".inventory_item_name").Text()
	return strings.TrimSpace(text), err
}

// AddToCart - clicks the add button of the index-th card
func (p *InventoryPage) AddToCart(index int) error {
	if index >= p.Items.Count() {
		return fmt.Errorf("no product at position %d", index)
	}
	return p.Item(index).Within("AddToCart", "button").Click()
}

// SortBy - picks one of the Sort* orders
func (p *InventoryPage) SortBy(order string) error {
	return p.Sort.SelectByValue(order)
}
