package interfaces

import (
	"time"

	"ui_harness/domain/entities"
)

// Reporter receives step results; formatting and persistence are its business
type Reporter interface {
	RecordResult(stepName, message string, severity entities.Severity)
}

// Config is the process-wide key/value store
type Config interface {
	String(key, def string) string
	Bool(key string, def bool) bool
	Int(key string, def int) int
	Duration(key string, def time.Duration) time.Duration
}

// TestData resolves named scenario input values
type TestData interface {
	Value(name string) (string, bool)
}

// Configuration keys read by the harness
const (
	KeyFramework        = "automation.framework"
	KeyBrowserName      = "browser.name"
	KeyHeadless         = "browser.headless"
	KeySlowMo           = "browser.slow_mo"
	KeyViewport         = "browser.viewport"
	KeyDefaultTimeout   = "timeout.default"
	KeyScreenshotPolicy = "screenshot.policy"
	KeyExecutionMode    = "execution.mode"
	KeyGridURL          = "grid.url"
	KeyWSEndpoint       = "playwright.ws_endpoint"
	KeyChromeDriverPath = "chromedriver.path"
	KeyChromeDriverPort = "chromedriver.port"
	KeyGeckoDriverPath  = "geckodriver.path"
	KeyGeckoDriverPort  = "geckodriver.port"
	KeyAppiumURL        = "appium.url"
	KeyWinAppDriverURL  = "winappdriver.url"
	KeyAppURL           = "app.url"
	KeyArtifactsDir     = "artifacts.dir"
	KeyIdleWait         = "diagnostics.idle_wait"
)
