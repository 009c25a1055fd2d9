package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// Capability settings for the device launchers
const (
	keyAppiumPlatform   = "appium.platform_name"
	keyAppiumDevice     = "appium.device_name"
	keyAppiumAutomation = "appium.automation_name"
)

// webdriverBackend is the legacy backend. One WebDriver session drives a
// browser, a mobile app through Appium or a Windows app through WinAppDriver.
type webdriverBackend struct {
	wd       selenium.WebDriver
	service  *selenium.Service
	logPipe  io.Closer
	platform entities.Platform
	log      *logrus.Entry
	closed   atomic.Bool
}

var _ interfaces.Backend = (*webdriverBackend)(nil)

// localDriver is the driver executable serving one browser outside grid mode
type localDriver struct {
	name    string
	pathKey string
	portKey string
	start   func(path string, port int, opts ...selenium.ServiceOption) (*selenium.Service, error)
	// urlFormat turns the port into the WebDriver endpoint
	urlFormat string
}

// driverFor pairs a browser with the driver that can run it
func driverFor(browserName string) localDriver {
	if browserName == "firefox" {
		return localDriver{
			name:      "geckodriver",
			pathKey:   interfaces.KeyGeckoDriverPath,
			portKey:   interfaces.KeyGeckoDriverPort,
			start:     selenium.NewGeckoDriverService,
			urlFormat: "http://localhost:%d",
		}
	}
	return localDriver{
		name:      "chromedriver",
		pathKey:   interfaces.KeyChromeDriverPath,
		portKey:   interfaces.KeyChromeDriverPort,
		start:     selenium.NewChromeDriverService,
		urlFormat: "http://localhost:%d/wd/hub",
	}
}

// findDriver - finds a driver executable path
func findDriver(name, configured string) (string, error) {
	for _, path := range []string{configured, os.Getenv("BROWSER_DRIVER_PATH")} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/" + name,
		"/usr/bin/" + name,
		"/opt/homebrew/bin/" + name,
		filepath.Join(os.Getenv("HOME"), "bin", name),
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s not found. Please install it or set %s.path", name, name)
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary() string {
	if path := os.Getenv("CHROME_BINARY_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// freePort asks the OS for a port that is unused right now. Another process
// can still take it before the driver binds, see startDriver.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

const driverStartAttempts = 3

// startDriver starts d on the configured port, or on a free port. A free port
// may be lost to another process before the driver binds it, so a failed start
// is retried on a new one.
func startDriver(d localDriver, path string, configured int, out io.Writer) (*selenium.Service, int, error) {
	attempts := driverStartAttempts
	if configured != 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		port := configured
		if port == 0 {
			p, err := freePort()
			if err != nil {
				return nil, 0, fmt.Errorf("failed to pick a %s port: %w", d.name, err)
			}
			port = p
		}
		service, err := d.start(path, port, selenium.Output(out))
		if err == nil {
			return service, port, nil
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("failed to start %s: %w", d.name, lastErr)
}

func browserName(cfg interfaces.Config) string {
	return strings.ToLower(cfg.String(interfaces.KeyBrowserName, "chrome"))
}

// browserCapabilities builds the capabilities for a desktop browser session
func browserCapabilities(opts session.LaunchOptions) selenium.Capabilities {
	cfg := opts.Config
	name := browserName(cfg)
	width, height := parseViewport(cfg.String(interfaces.KeyViewport, "1920x1080"))

	if name == "firefox" {
		caps := selenium.Capabilities{"browserName": "firefox"}
		args := []string{fmt.Sprintf("--width=%d", width), fmt.Sprintf("--height=%d", height)}
		if opts.Headless {
			args = append(args, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: args})
		return caps
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	chromeCaps := chrome.Capabilities{
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			fmt.Sprintf("--window-size=%d,%d", width, height),
		},
	}
	if opts.Headless {
		chromeCaps.Args = append(chromeCaps.Args, "--headless=new")
	}
	if opts.Mode != entities.ModeGrid {
		if chromeBinary := findChromeBinary(); chromeBinary != "" {
			chromeCaps.Path = chromeBinary
		}
	}
	caps.AddChrome(chromeCaps)
	return caps
}

// LaunchWebDriver - starts a browser session. Grid mode connects to grid.url,
// anything else starts a private chromedriver, or geckodriver for firefox.
func LaunchWebDriver(ctx context.Context, opts session.LaunchOptions) (interfaces.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := newWebdriverBackend(entities.PlatformWeb, opts.Logger)
	caps := browserCapabilities(opts)

	if opts.Mode == entities.ModeGrid {
		gridURL := opts.Config.String(interfaces.KeyGridURL, "")
		if gridURL == "" {
			return nil, fmt.Errorf("grid mode needs %s", interfaces.KeyGridURL)
		}
		return b.connect(caps, gridURL)
	}

	driver := driverFor(browserName(opts.Config))
	driverPath, err := findDriver(driver.name, opts.Config.String(driver.pathKey, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", driver.name, err)
	}

	pipe := b.log.WriterLevel(logrus.DebugLevel)
	b.logPipe = pipe
	service, port, err := startDriver(driver, driverPath, opts.Config.Int(driver.portKey, 0), pipe)
	if err != nil {
		pipe.Close()
		return nil, err
	}
	b.service = service
	b.log.WithFields(logrus.Fields{"driver": driverPath, "port": port}).Debugf("%s started", driver.name)

	return b.connect(caps, fmt.Sprintf(driver.urlFormat, port))
}

// LaunchAppium - starts a mobile session on the Appium server at appium.url
func LaunchAppium(ctx context.Context, opts session.LaunchOptions) (interfaces.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	serverURL := cfg.String(interfaces.KeyAppiumURL, "")
	if serverURL == "" {
		return nil, fmt.Errorf("mobile mode needs %s", interfaces.KeyAppiumURL)
	}

	caps := selenium.Capabilities{
		"platformName":          cfg.String(keyAppiumPlatform, "Android"),
		"appium:deviceName":     cfg.String(keyAppiumDevice, "emulator-5554"),
		"appium:automationName": cfg.String(keyAppiumAutomation, "UiAutomator2"),
	}
	if app := cfg.String(interfaces.KeyAppURL, ""); app != "" {
		caps["appium:app"] = app
	}
	return newWebdriverBackend(entities.PlatformMobile, opts.Logger).connect(caps, serverURL)
}

// LaunchWinAppDriver - starts a Windows application session
func LaunchWinAppDriver(ctx context.Context, opts session.LaunchOptions) (interfaces.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	app := cfg.String(interfaces.KeyAppURL, "")
	if app == "" {
		return nil, fmt.Errorf("desktop mode needs %s", interfaces.KeyAppURL)
	}
	caps := selenium.Capabilities{
		"app":          app,
		"platformName": "Windows",
		"deviceName":   "WindowsPC",
	}
	serverURL := cfg.String(interfaces.KeyWinAppDriverURL, "http://127.0.0.1:4723")
	return newWebdriverBackend(entities.PlatformDesktop, opts.Logger).connect(caps, serverURL)
}

func newWebdriverBackend(platform entities.Platform, log *logrus.Entry) *webdriverBackend {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &webdriverBackend{platform: platform, log: log.WithField("platform", platform)}
}

// connect opens the WebDriver session; on failure everything already started is released
func (b *webdriverBackend) connect(caps selenium.Capabilities, urlPrefix string) (interfaces.Backend, error) {
	wd, err := selenium.NewRemote(caps, urlPrefix)
	if err != nil {
		b.Close()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver at %s: %w", urlPrefix, err)
	}
	b.wd = wd
	b.log.WithField("url", urlPrefix).Debug("webdriver session started")
	return b, nil
}

func (b *webdriverBackend) Kind() entities.BackendKind { return entities.BackendLegacy }

func (b *webdriverBackend) Platform() entities.Platform { return b.platform }

// Document - returns the window the driver is focused on
func (b *webdriverBackend) Document() (interfaces.Document, error) {
	if b.closed.Load() || b.wd == nil {
		return nil, errors.New("webdriver session has been closed")
	}
	return &wdDocument{wd: b.wd, platform: b.platform, closed: &b.closed}, nil
}

// Screenshot - WebDriver only captures the viewport, fullPage is ignored
func (b *webdriverBackend) Screenshot(fullPage bool) ([]byte, error) {
	if b.closed.Load() || b.wd == nil {
		return nil, errors.New("webdriver session has been closed")
	}
	return b.wd.Screenshot()
}

// WaitForNetworkIdle - WebDriver exposes no network activity, readiness is the best signal
func (b *webdriverBackend) WaitForNetworkIdle(timeout time.Duration) error {
	doc, err := b.Document()
	if err != nil {
		return err
	}
	return doc.WaitForLoad(interfaces.LoadStateLoad, timeout)
}

// Close - quits the session and stops the local driver service
func (b *webdriverBackend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	var closeErr error
	if b.wd != nil {
		if err := b.wd.Quit(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to quit webdriver: %w", err)
		}
	}
	if b.service != nil {
		if err := b.service.Stop(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("failed to stop driver service: %w", err))
		}
	}
	if b.logPipe != nil {
		b.logPipe.Close()
	}
	return closeErr
}
