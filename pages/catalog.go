package pages

import (
	"strings"

	"ui_harness/application/pom"
	"ui_harness/domain/interfaces"
)

// DefaultBaseURL is used when app.url is not configured
const DefaultBaseURL = "https://www.saucedemo.com/"

// Catalog keys
const (
	Login     pom.PageKey = "login"
	Inventory pom.PageKey = "inventory"
	Cart      pom.PageKey = "cart"
)

// Catalog returns the factories for every storefront page
func Catalog() *pom.Catalog {
	return pom.NewCatalog().
		Register(Login, NewLoginPage).
		Register(Inventory, NewInventoryPage).
		Register(Cart, NewCartPage)
}

// pageURL joins the configured base URL and a page path
func pageURL(b *pom.Base, path string) string {
	base := b.Setting(interfaces.KeyAppURL, DefaultBaseURL)
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + path
}
