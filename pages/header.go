// Package pages holds the page objects of the demo storefront.
package pages

import (
	"strconv"
	"strings"

	"ui_harness/application/pom"
	"ui_harness/domain/entities"
)

// HeaderBar is the navigation bar shared by every page behind the login
type HeaderBar struct {
	Menu      *pom.Element
	Cart      *pom.Element
	CartBadge *pom.Element
	Logout    *pom.Element
}

func (h *HeaderBar) DeclareElements(b *pom.Binder) {
	b.Element(&h.Menu, "Menu", entities.FindBy{ID: "react-burger-menu-btn"})
	b.Element(&h.Cart, "Cart", entities.FindBy{CSS: ".shopping_cart_link"})
	b.Element(&h.CartBadge, "CartBadge", entities.FindBy{CSS: ".shopping_cart_badge"})
	b.Element(&h.Logout, "Logout", entities.FindBy{ID: "logout_sidebar_link"})
}

// CartCount reads the badge; no badge means an empty cart
func (h *HeaderBar) CartCount() int {
	if !h.CartBadge.IsVisible() {
		return 0
	}
	text, err := h.CartBadge.Text()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}

// OpenCart - clicks the cart icon
func (h *HeaderBar) OpenCart() error {
	return h.Cart.Click()
}

// SignOut - opens the side menu and logs out
func (h *HeaderBar) SignOut() error {
	if err := h.Menu.Click(); err != nil {
		return err
	}
	if err := h.Logout.AssertVisible(); err != nil {
		return err
	}
	return h.Logout.Click()
}
