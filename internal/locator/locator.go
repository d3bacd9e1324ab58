// Package locator finds page elements through ordered selector fallback
// chains, so a single layout change on the target site degrades to the next
// known selector instead of failing the run.
package locator

import (
	"strings"
	"time"

	"github.com/yourusername/forum-autosign/internal/browser"
	"github.com/yourusername/forum-autosign/internal/logger"
)

// Locator resolves selector chains against a page
type Locator struct {
	page    browser.Page
	timeout time.Duration
}

// New returns a locator with the given default wait timeout
func New(page browser.Page, timeout time.Duration) *Locator {
	return &Locator{page: page, timeout: timeout}
}

// FindBySelectors tries each selector in order, waiting up to timeout for
// each, and returns the first match. A zero timeout uses the locator's
// default. Returns nil when no selector matched; absence is an expected
// outcome, not an error.
func (l *Locator) FindBySelectors(selectors []string, timeout time.Duration) browser.Element {
	if timeout <= 0 {
		timeout = l.timeout
	}

	for _, sel := range selectors {
		el, err := l.page.Find(KindOf(sel), sel, timeout)
		if err != nil {
			continue
		}
		logger.Debug("element located", "selector", sel)
		return el
	}

	logger.Debug("no selector matched", "selectors", strings.Join(selectors, ", "))
	return nil
}

// FindClickableBySelectors behaves like FindBySelectors but additionally
// requires the matched element to be visible and enabled, moving on to the
// next selector otherwise.
func (l *Locator) FindClickableBySelectors(selectors []string, timeout time.Duration) browser.Element {
	if timeout <= 0 {
		timeout = l.timeout
	}

	for _, sel := range selectors {
		el, err := l.page.Find(KindOf(sel), sel, timeout)
		if err != nil {
			continue
		}

		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		enabled, err := el.Enabled()
		if err != nil || !enabled {
			continue
		}

		logger.Debug("clickable element located", "selector", sel)
		return el
	}
	return nil
}

// KindOf treats expressions starting like a path as XPath, everything else
// as CSS.
func KindOf(sel string) browser.QueryKind {
	if strings.HasPrefix(sel, "//") || strings.HasPrefix(sel, "(") || strings.HasPrefix(sel, ".//") {
		return browser.QueryXPath
	}
	return browser.QueryCSS
}
