package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// playwrightBackend is the modern backend: one driver process, one browser,
// one context and the page currently in focus.
type playwrightBackend struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	pages      []playwright.Page
	pagesMutex sync.Mutex
	log        *logrus.Entry
}

var _ interfaces.Backend = (*playwrightBackend)(nil)

// LaunchPlaywright - starts the playwright driver, a browser, a context and a page.
// A configured websocket endpoint is connected to instead of launching.
func LaunchPlaywright(ctx context.Context, opts session.LaunchOptions) (interfaces.Backend, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b := &playwrightBackend{pw: pw, log: opts.Logger}
	if b.log == nil {
		b.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := b.start(opts); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *playwrightBackend) start(opts session.LaunchOptions) error {
	cfg := opts.Config
	browserType, err := b.browserType(cfg.String(interfaces.KeyBrowserName, "chromium"))
	if err != nil {
		return err
	}

	if ws := cfg.String(interfaces.KeyWSEndpoint, ""); ws != "" {
		b.browser, err = browserType.Connect(ws)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", ws, err)
		}
	} else {
		b.browser, err = browserType.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			SlowMo:   playwright.Float(float64(cfg.Int(interfaces.KeySlowMo, 0))),
			Args: []string{
				"--disable-dev-shm-usage",
				"--no-sandbox",
				"--disable-infobars",
				"--disable-notifications",
			},
		})
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
	}

	width, height := parseViewport(cfg.String(interfaces.KeyViewport, "1920x1080"))
	b.context, err = b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: width, Height: height},
		IgnoreHttpsErrors: playwright.Bool(true),
		AcceptDownloads:   playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	timeout := time.Duration(cfg.Int(interfaces.KeyDefaultTimeout, 30)) * time.Second
	b.context.SetDefaultTimeout(ms(timeout))

	page, err := b.context.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	b.track(page)

	b.context.OnPage(func(newPage playwright.Page) {
		b.track(newPage)
	})

	b.log.WithFields(logrus.Fields{
		"browser":  browserType.Name(),
		"headless": opts.Headless,
		"viewport": fmt.Sprintf("%dx%d", width, height),
	}).Debug("playwright backend started")
	return nil
}

func (b *playwrightBackend) browserType(name string) (playwright.BrowserType, error) {
	switch strings.ToLower(name) {
	case "", "chromium", "chrome":
		return b.pw.Chromium, nil
	case "firefox":
		return b.pw.Firefox, nil
	case "webkit", "safari":
		return b.pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported browser %q", name)
}

// track makes page the focused page; popups opened by the application win focus
func (b *playwrightBackend) track(page playwright.Page) {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()

	for _, p := range b.pages {
		if p == page {
			b.page = page
			return
		}
	}
	b.pages = append(b.pages, page)
	b.page = page

	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})

	page.OnClose(func(closedPage playwright.Page) {
		b.pagesMutex.Lock()
		defer b.pagesMutex.Unlock()

		for i, p := range b.pages {
			if p == closedPage {
				b.pages = append(b.pages[:i], b.pages[i+1:]...)
				break
			}
		}
		if b.page == closedPage && len(b.pages) > 0 {
			b.page = b.pages[0]
		}
	})
}

func (b *playwrightBackend) current() (playwright.Page, error) {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	if b.page == nil || b.page.IsClosed() {
		return nil, errors.New("target page, context or browser has been closed")
	}
	return b.page, nil
}

func (b *playwrightBackend) Kind() entities.BackendKind { return entities.BackendModern }

func (b *playwrightBackend) Platform() entities.Platform { return entities.PlatformWeb }

// Document - returns the focused page
func (b *playwrightBackend) Document() (interfaces.Document, error) {
	page, err := b.current()
	if err != nil {
		return nil, err
	}
	return &pwDocument{page: page}, nil
}

// Screenshot - captures the focused page
func (b *playwrightBackend) Screenshot(fullPage bool) ([]byte, error) {
	page, err := b.current()
	if err != nil {
		return nil, err
	}
	return page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

// WaitForNetworkIdle - waits until there are no network connections for 500ms
func (b *playwrightBackend) WaitForNetworkIdle(timeout time.Duration) error {
	page, err := b.current()
	if err != nil {
		return err
	}
	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(ms(timeout)),
	})
}

// Close - closes context, browser and the driver, in that order
func (b *playwrightBackend) Close() error {
	var closeErr error

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = errors.Join(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}

	b.pagesMutex.Lock()
	b.page = nil
	b.pages = nil
	b.pagesMutex.Unlock()
	return closeErr
}

func isClosedErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

// ms converts a duration to playwright's float milliseconds
func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

// parseViewport reads WIDTHxHEIGHT, falling back to 1920x1080
func parseViewport(s string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if ok {
		width, err1 := strconv.Atoi(w)
		height, err2 := strconv.Atoi(h)
		if err1 == nil && err2 == nil && width > 0 && height > 0 {
			return width, height
		}
	}
	return 1920, 1080
}
