package pages

import (
	"ui_harness/application/pom"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// LoginPage is the storefront entry page
type LoginPage struct {
	pom.Base
	Username *pom.Element
	Password *pom.Element
	Submit   *pom.Element
	Error    *pom.Element
}

// NewLoginPage - catalog factory
func NewLoginPage(doc interfaces.Document, opts ...pom.BaseOption) (pom.PageObject, error) {
	p := &LoginPage{Base: pom.NewBaseFromDocument(doc, opts...)}
	if err := p.Bind(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LoginPage) DeclareElements(b *pom.Binder) {
	b.Element(&p.Username, "Username", entities.FindBy{ID: "user-name", Placeholder: "Username"})
	b.Element(&p.Password, "Password", entities.FindBy{ID: "password"})
	b.Element(&p.Submit, "Submit", entities.FindBy{ID: "login-button"})
	b.Element(&p.Error, "Error", entities.FindBy{CSS: "[data-test='error']"})
}

func (p *LoginPage) NavigateToPage() error {
	return p.NavigateTo(pageURL(&p.Base, ""))
}

func (p *LoginPage) IsPageLoaded() bool {
	return pom.SafeLoaded(func() bool {
		return p.Username.IsVisible() && p.Password.IsVisible() && p.Submit.IsEnabled()
	})
}

// Login - fills the credentials and submits the form
func (p *LoginPage) Login(username, password string) error {
	if err := p.Username.Fill(username); err != nil {
		return err
	}
	if err := p.Password.Fill(password); err != nil {
		return err
	}
	return p.Submit.Click()
}

// ErrorMessage returns the form error, or "" when none is shown
func (p *LoginPage) ErrorMessage() string {
	if !p.Error.IsVisible() {
		return ""
	}
	text, err := p.Error.Text()
	if err != nil {
		return ""
	}
	return text
}
