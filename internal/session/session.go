// Package session owns the browser driver lifecycle: creation with
// version-mismatch recovery, liveness probing, and idempotent shutdown that
// is safe from signal handlers, error paths and normal completion alike.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/logger"
)

// ErrSessionClosed is returned by operations attempted after shutdown
// completed. A closed manager never touches a dead handle.
var ErrSessionClosed = errors.New("session: closed")

// forceKillWait bounds how long ForceQuit waits for the browser process to
// exit after being killed.
const forceKillWait = 3 * time.Second

// launchFunc instantiates a browser, optionally pinned to a Chrome major
// version (0 means default resolution). Swapped out in tests.
type launchFunc func(cfg *config.Config, pinnedMajor int) (*rod.Browser, *launcher.Launcher, error)

// Manager owns at most one live browser session
type Manager struct {
	mu          sync.Mutex
	browser     *rod.Browser
	page        *rod.Page
	launcher    *launcher.Launcher
	waitTimeout time.Duration
	closed      bool

	launch launchFunc
}

// New returns a manager with no active session
func New() *Manager {
	return &Manager{launch: launchBrowser}
}

// Create launches and connects a browser session. When the launch error
// reports a driver/browser major version mismatch, it retries exactly once
// pinned to the browser's reported major; when that pin cannot be resolved,
// it retries once more with default version resolution. Unparseable errors
// propagate unchanged.
func (m *Manager) Create(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSessionClosed
	}
	if m.browser != nil {
		return errors.New("session: already active")
	}

	logger.Info("creating browser session", "headless", cfg.Browser.Headless)

	b, l, err := m.launch(cfg, 0)
	if err != nil {
		major, ok := browserMajorFromError(err.Error())
		if !ok {
			return err
		}

		logger.Warn("driver/browser version mismatch detected, retrying pinned to browser major",
			"major", major, "error", err)
		b, l, err = m.launch(cfg, major)
		if errors.Is(err, ErrPinUnsupported) {
			logger.Warn("version pinning unavailable, retrying with default resolution", "major", major)
			b, l, err = m.launch(cfg, 0)
		}
		if err != nil {
			return err
		}
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		if l != nil {
			l.Cleanup()
		}
		return fmt.Errorf("failed to open stealth page: %w", err)
	}

	if err := setRealisticViewport(page); err != nil {
		logger.Warn("failed to set viewport", "error", err)
	}

	m.browser = b
	m.launcher = l
	m.page = page
	m.waitTimeout = cfg.WaitTimeout()

	if v, err := b.Version(); err == nil {
		logger.Debug("browser connected", "product", v.Product, "protocol", v.ProtocolVersion)
	}

	logger.Info("browser session created")
	return nil
}

// Page returns the active page, or nil when no session is live
func (m *Manager) Page() *rod.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	return m.page
}

// Browser returns the active browser, or nil when no session is live
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	return m.browser
}

// WaitTimeout returns the configured element wait timeout
func (m *Manager) WaitTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitTimeout
}

// Alive probes the session with a harmless version read
func (m *Manager) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.browser == nil {
		return false
	}
	_, err := m.browser.Version()
	return err == nil
}

// Quit shuts the session down gracefully. Safe to call any number of times
// and from any exit path; it never panics.
func (m *Manager) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitLocked()
}

// ForceQuit kills the browser's OS process directly before converging to the
// same terminal state as Quit. Intended for abnormal termination paths.
func (m *Manager) ForceQuit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if m.launcher != nil {
		pid := m.launcher.PID()
		safely(func() { m.launcher.Kill() })
		if pid > 0 {
			waitProcessExit(pid, forceKillWait)
		}
		logger.Info("browser process terminated", "pid", pid)
	}

	m.quitLocked()
}

// quitLocked transitions to the terminal state first, then releases the
// handles so a failure mid-close can never leave a half-open session.
func (m *Manager) quitLocked() {
	if m.closed {
		return
	}

	b, l, page := m.browser, m.launcher, m.page
	m.browser, m.launcher, m.page = nil, nil, nil
	m.closed = true

	safely(func() {
		if page != nil {
			if err := page.Close(); err != nil {
				logger.Debug("failed to close page", "error", err)
			}
		}
		if b != nil {
			if err := b.Close(); err != nil {
				logger.Debug("failed to close browser", "error", err)
			}
		}
		if l != nil {
			l.Cleanup()
		}
	})

	logger.Info("browser session closed")
}

// safely swallows panics; shutdown must never throw
func safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("recovered panic during shutdown", "panic", r)
		}
	}()
	fn()
}

func waitProcessExit(pid int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		proc, err := os.FindProcess(pid)
		if err != nil {
			return
		}
		if err := proc.Signal(syscall.Signal(0)); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
