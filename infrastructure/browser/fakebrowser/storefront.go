package fakebrowser

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Storefront users
const (
	StandardUser  = "standard_user"
	LockedOutUser = "locked_out_user"
	ShopPassword  = "secret_sauce"
)

// LockedOutMessage is the login error shown to LockedOutUser
const LockedOutMessage = "Epic sadface: Sorry, this user has been locked out."

// Products listed by the storefront inventory, in display order
var Products = []string{
	"Sauce Labs Backpack",
	"Sauce Labs Bike Light",
	"Sauce Labs Bolt T-Shirt",
}

// storefront keeps the cart across navigations of one document
type storefront struct {
	base string
	mu   sync.Mutex
	cart []int
}

// Storefront routes a small rendition of the demo shop under base into doc:
// a login page, the product inventory and the cart.
func Storefront(doc *Document, base string) {
	s := &storefront{base: strings.TrimRight(base, "/")}
	doc.Route(s.base+"/", s.login)
	doc.Route(s.base, s.login)
	doc.Route(s.url("inventory.html"), s.inventory)
	doc.Route(s.url("cart.html"), s.cartPage)
}

func (s *storefront) url(path string) string { return s.base + "/" + path }

func (s *storefront) login(d *Document) {
	d.SetTitle("Swag Labs")
	d.Put("#user-name", &Element{Visible: true, Attrs: map[string]string{"placeholder": "Username"}})
	d.Put("#password", &Element{Visible: true, Attrs: map[string]string{"type": "password"}})
	d.Put("#login-button", &Element{Visible: true, Value: "Login"})
	d.OnClick("#login-button", func(d *Document) {
		var user, pass string
		d.Mutate(func(els map[string][]*Element) {
			user = first(els["#user-name"]).Value
			pass = first(els["#password"]).Value
		})
		switch {
		case user == "":
			d.Put("[data-test='error']", Visible("Epic sadface: Username is required"))
		case user == LockedOutUser:
			d.Put("[data-test='error']", Visible(LockedOutMessage))
		case pass != ShopPassword:
			d.Put("[data-test='error']", Visible("Epic sadface: Username and password do not match any user in this service"))
		default:
			d.Navigate(s.url("inventory.html"), time.Second)
		}
	})
}

func (s *storefront) header(d *Document) {
	d.Put("#react-burger-menu-btn", Visible("Open Menu"))
	d.Put(".shopping_cart_link", Visible(""))
	s.mu.Lock()
	n := len(s.cart)
	s.mu.Unlock()
	if n > 0 {
		d.Put(".shopping_cart_badge", Visible(fmt.Sprint(n)))
	}
	d.OnClick(".shopping_cart_link", func(d *Document) { d.Navigate(s.url("cart.html"), time.Second) })
	d.OnClick("#react-burger-menu-btn", func(d *Document) {
		d.Put("#logout_sidebar_link", Visible("Logout"))
	})
	d.OnClick("#logout_sidebar_link", func(d *Document) {
		s.mu.Lock()
		s.cart = nil
		s.mu.Unlock()
		d.Navigate(s.base+"/", time.Second)
	})
}

func (s *storefront) inventory(d *Document) {
	d.SetTitle("Swag Labs")
	s.header(d)
	d.Put(".title", Visible("Products"))
	d.Put("[data-testid='product-sort-container']", &Element{
		Visible: true,
		Value:   "az",
		Options: []Option{
			{Value: "az", Label: "Name (A to Z)"},
			{Value: "za", Label: "Name (Z to A)"},
			{Value: "lohi", Label: "Price (low to high)"},
			{Value: "hilo", Label: "Price (high to low)"},
		},
	})

	cards := make([]*Element, len(Products))
	for i, name := range Products {
		cards[i] = Visible(name)
		card := fmt.Sprintf(".inventory_item >> nth=%d", i)
		d.Put(card+" >> .inventory_item_name", Visible(name))
		d.Put(card+" >> button", Visible("Add to cart"))
		d.OnClick(card+" >> button", func(d *Document) {
			s.mu.Lock()
			s.cart = append(s.cart, i)
			n := len(s.cart)
			s.mu.Unlock()
			d.Put(".shopping_cart_badge", Visible(fmt.Sprint(n)))
		})
	}
	d.Put(".inventory_item", cards...)
}

func (s *storefront) cartPage(d *Document) {
	d.SetTitle("Swag Labs")
	s.header(d)
	s.mu.Lock()
	items := make([]*Element, len(s.cart))
	for i, idx := range s.cart {
		items[i] = Visible(Products[idx])
	}
	s.mu.Unlock()
	if len(items) > 0 {
		d.Put(".cart_item", items...)
	}
	d.Put("#checkout", Visible("Checkout"))
	d.Put("#continue-shopping", Visible("Continue Shopping"))
}

func first(els []*Element) *Element {
	if len(els) == 0 {
		return &Element{}
	}
	return els[0]
}
