package session

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/logger"
)

// userAgents rotate per session so repeated runs do not present an identical
// fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// launchBrowser starts a Chrome instance and connects to it. pinnedMajor
// selects a specific browser major version to download; 0 uses whatever
// binary is installed or the launcher's default.
func launchBrowser(cfg *config.Config, pinnedMajor int) (*rod.Browser, *launcher.Launcher, error) {
	l, err := buildLauncher(cfg, pinnedMajor)
	if err != nil {
		return nil, nil, err
	}

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return b, l, nil
}

func buildLauncher(cfg *config.Config, pinnedMajor int) (*launcher.Launcher, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Devtools(false).
		Leakless(false).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-popup-blocking").
		Set("lang", "zh-CN").
		Set("user-agent", userAgents[rand.Intn(len(userAgents))])

	if runningInCI() {
		logger.Debug("CI environment detected, applying stabilization flags")
		l = l.Set("disable-gpu").
			Set("window-size", "1920,1080").
			Set("font-render-hinting", "none").
			Set("mute-audio").
			Set("no-first-run").
			Set("no-default-browser-check").
			Set("disable-extensions")
	}

	bin, err := resolveBinary(pinnedMajor)
	if err != nil {
		return nil, err
	}
	if bin != "" {
		l = l.Bin(bin)
	}
	return l, nil
}

// resolveBinary picks the Chrome binary to run. A pinned major downloads the
// matching chromium snapshot; otherwise env overrides and the local install
// are consulted in order, leaving the launcher's default download as the
// final fallback.
func resolveBinary(pinnedMajor int) (string, error) {
	if pinnedMajor > 0 {
		rev, ok := chromiumRevisions[pinnedMajor]
		if !ok {
			return "", fmt.Errorf("%w: no revision for Chrome %d", ErrPinUnsupported, pinnedMajor)
		}
		db := launcher.NewBrowser()
		db.Revision = rev
		bin, err := db.Get()
		if err != nil {
			return "", fmt.Errorf("failed to fetch Chrome %d (revision %d): %w", pinnedMajor, rev, err)
		}
		logger.Info("using pinned browser build", "major", pinnedMajor, "revision", rev)
		return bin, nil
	}

	for _, key := range []string{"CHROME_BINARY", "GOOGLE_CHROME_SHIM"} {
		if bin := os.Getenv(key); bin != "" {
			return bin, nil
		}
	}
	if bin, ok := launcher.LookPath(); ok {
		return bin, nil
	}
	return "", nil
}

func runningInCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

func setRealisticViewport(page *rod.Page) error {
	return page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
}
