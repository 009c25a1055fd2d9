// Package saucedemo is the demo suite for the storefront page objects.
package saucedemo

import (
	"fmt"
	"time"

	"ui_harness/application/runner"
	"ui_harness/domain/entities"
	"ui_harness/pages"
)

// Test data names read by the steps
const (
	DataStandardUser = "standard_user"
	DataLockedUser   = "locked_out_user"
	DataPassword     = "password"
)

// Defaults is the test data the suite runs with unless the configuration overrides it
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"data." + DataStandardUser: "standard_user",
		"data." + DataLockedUser:   "locked_out_user",
		"data." + DataPassword:     "secret_sauce",
	}
}

// OpenLoginPage navigates to the login page, retrying a flaky first load once
func OpenLoginPage() runner.Step {
	return runner.Step{Name: "I open the login page", Run: func(w *runner.World) error {
		login, err := runner.Page[*pages.LoginPage](w, pages.Login)
		if err != nil {
			return err
		}
		if err := runner.Retry(w.Ctx, 1, time.Second, login.NavigateToPage); err != nil {
			return err
		}
		return w.Check(login.IsPageLoaded(), "login page loaded", "login page did not load")
	}}
}

// LogInAs logs in with the user stored under the userData name
func LogInAs(userData string) runner.Step {
	return runner.Step{Name: fmt.Sprintf("I log in as %s", userData), Run: func(w *runner.World) error {
		user, err := w.Input(userData)
		if err != nil {
			return err
		}
		password, err := w.Input(DataPassword)
		if err != nil {
			return err
		}
		login, err := runner.Page[*pages.LoginPage](w, pages.Login)
		if err != nil {
			return err
		}
		_, err = w.Measure("login", func() error { return login.Login(user, password) })
		return err
	}}
}

// SeeProducts checks that the inventory is shown
func SeeProducts() runner.Step {
	return runner.Step{Name: "I see the product list", Run: func(w *runner.World) error {
		inventory, err := runner.Page[*pages.InventoryPage](w, pages.Inventory)
		if err != nil {
			return err
		}
		if err := inventory.Title.AssertTextEquals("Products"); err != nil {
			return err
		}
		return inventory.Items.AssertCountGreaterThan(0)
	}}
}

// SeeLoginError checks the login form error
func SeeLoginError(fragment string) runner.Step {
	return runner.Step{Name: fmt.Sprintf("I see the login error %q", fragment), Run: func(w *runner.World) error {
		login, err := runner.Page[*pages.LoginPage](w, pages.Login)
		if err != nil {
			return err
		}
		return login.Error.AssertTextContains(fragment)
	}}
}

// AddProducts adds the products at the given positions
func AddProducts(positions ...int) runner.Step {
	return runner.Step{Name: fmt.Sprintf("I add %d products to the cart", len(positions)), Run: func(w *runner.World) error {
		inventory, err := runner.Page[*pages.InventoryPage](w, pages.Inventory)
		if err != nil {
			return err
		}
		for _, i := range positions {
			if err := inventory.AddToCart(i); err != nil {
				return err
			}
		}
		n := inventory.Header.CartCount()
		return w.Check(n == len(positions),
			fmt.Sprintf("cart badge shows %d", n),
			fmt.Sprintf("cart badge shows %d, want %d", n, len(positions)))
	}}
}

// SeeCartItems opens the cart and checks how many items it holds
func SeeCartItems(want int) runner.Step {
	return runner.Step{Name: fmt.Sprintf("the cart holds %d items", want), Run: func(w *runner.World) error {
		inventory, err := runner.Page[*pages.InventoryPage](w, pages.Inventory)
		if err != nil {
			return err
		}
		if err := inventory.Header.OpenCart(); err != nil {
			return err
		}
		cart, err := runner.Page[*pages.CartPage](w, pages.Cart)
		if err != nil {
			return err
		}
		return cart.Items.AssertCountEquals(want)
	}}
}

// SignOut logs out through the side menu
func SignOut() runner.Step {
	return runner.Step{Name: "I sign out", Run: func(w *runner.World) error {
		inventory, err := runner.Page[*pages.InventoryPage](w, pages.Inventory)
		if err != nil {
			return err
		}
		if err := inventory.Header.SignOut(); err != nil {
			return err
		}
		login, err := runner.Page[*pages.LoginPage](w, pages.Login)
		if err != nil {
			return err
		}
		return login.Submit.AssertVisible()
	}}
}

// Scenarios returns the suite. Tags select subsets from the command line.
func Scenarios() []runner.Scenario {
	return []runner.Scenario{
		{
			Info: entities.Scenario{Name: "Standard user logs in", Tags: []string{"smoke", "login"}},
			Steps: []runner.Step{
				OpenLoginPage(),
				LogInAs(DataStandardUser),
				SeeProducts(),
			},
		},
		{
			Info: entities.Scenario{Name: "Locked out user is rejected", Tags: []string{"login"}},
			Steps: []runner.Step{
				OpenLoginPage(),
				LogInAs(DataLockedUser),
				SeeLoginError("locked out"),
			},
		},
		{
			Info: entities.Scenario{Name: "Products go into the cart", Tags: []string{"smoke", "cart"}},
			Steps: []runner.Step{
				OpenLoginPage(),
				LogInAs(DataStandardUser),
				AddProducts(0, 2),
				SeeCartItems(2),
			},
		},
		{
			Info: entities.Scenario{Name: "User signs out", Tags: []string{"login"}},
			Steps: []runner.Step{
				OpenLoginPage(),
				LogInAs(DataStandardUser),
				SignOut(),
			},
		},
	}
}

// Filter keeps the scenarios carrying any of tags; no tags keeps everything
func Filter(scenarios []runner.Scenario, tags []string) []runner.Scenario {
	if len(tags) == 0 {
		return scenarios
	}
	var out []runner.Scenario
	for _, s := range scenarios {
		for _, tag := range tags {
			if s.Info.HasTag(tag) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
