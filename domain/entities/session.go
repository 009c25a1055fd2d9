package entities

import (
	"fmt"
	"strings"
)

// BackendKind selects the automation engine family
type BackendKind string

const (
	BackendModern BackendKind = "playwright"
	BackendLegacy BackendKind = "selenium"
)

// ParseBackendKind maps a configured framework name onto a BackendKind
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playwright", "modern":
		return BackendModern, nil
	case "selenium", "webdriver", "legacy", "":
		return BackendLegacy, nil
	}
	return "", fmt.Errorf("unknown automation framework %q", s)
}

// ExecutionMode says where and how a scenario runs
type ExecutionMode string

const (
	ModeLocal    ExecutionMode = "local"
	ModeGrid     ExecutionMode = "grid"
	ModeMobile   ExecutionMode = "mobile"
	ModeDesktop  ExecutionMode = "desktop"
	ModeHeadless ExecutionMode = "headless"
)

// ParseExecutionMode maps a configured mode name onto an ExecutionMode
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return ModeLocal, nil
	case "grid", "remote", "cloud", "saucelabs":
		return ModeGrid, nil
	case "mobile", "appium":
		return ModeMobile, nil
	case "desktop", "windows":
		return ModeDesktop, nil
	case "headless":
		return ModeHeadless, nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}

// Platform is the device family a backend drives
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
)

// Platform derives the target platform from the execution mode
func (m ExecutionMode) Platform() Platform {
	switch m {
	case ModeMobile:
		return PlatformMobile
	case ModeDesktop:
		return PlatformDesktop
	default:
		return PlatformWeb
	}
}

// ScreenshotPolicy decides when legacy backends capture after a step
type ScreenshotPolicy string

const (
	CaptureAlways    ScreenshotPolicy = "always"
	CaptureOnFailure ScreenshotPolicy = "on-failure"
)

// ParseScreenshotPolicy defaults to CaptureOnFailure for unknown values
func ParseScreenshotPolicy(s string) ScreenshotPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always", "true", "all":
		return CaptureAlways
	default:
		return CaptureOnFailure
	}
}
