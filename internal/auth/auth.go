// Package auth signs the account into the forum and persists the session
// cookies between runs so most runs skip the login form entirely.
package auth

import (
	"errors"
	"time"

	"github.com/yourusername/forum-autosign/internal/browser"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/locator"
	"github.com/yourusername/forum-autosign/internal/logger"
	"github.com/yourusername/forum-autosign/internal/timing"
)

var (
	usernameSelectors = []string{
		"input[name='username']",
		"#ls_username",
	}
	passwordSelectors = []string{
		"input[name='password']",
		"#ls_password",
	}
	loginSubmitSelectors = []string{
		"button[name='loginsubmit']",
		"form[name='login'] button[type='submit']",
		"input[name='loginsubmit']",
	}
	signedInSelectors = []string{
		"#um",
		"a[href*='action=logout']",
	}
)

// typeCredential is swapped out in tests to avoid human typing delays
var typeCredential = browser.HumanType

// SignIn submits the login form with the configured credentials and verifies
// the signed-in state afterwards.
func SignIn(page browser.Page, loc *locator.Locator, clock *timing.Model, cfg *config.Config) error {
	logger.Info("signing in", "username", cfg.Site.Username)

	if err := page.Navigate(cfg.LoginURL()); err != nil {
		return err
	}
	clock.SmartWait(timing.PageLoad, 1.5)

	username := loc.FindBySelectors(usernameSelectors, 0)
	if username == nil {
		return errors.New("login form username field not found")
	}
	password := loc.FindBySelectors(passwordSelectors, 0)
	if password == nil {
		return errors.New("login form password field not found")
	}

	if err := username.Clear(); err != nil {
		return err
	}
	if err := typeCredential(username, cfg.Site.Username); err != nil {
		return err
	}
	if err := password.Clear(); err != nil {
		return err
	}
	if err := typeCredential(password, cfg.Site.Password); err != nil {
		return err
	}

	submit := loc.FindClickableBySelectors(loginSubmitSelectors, 0)
	if submit == nil {
		return errors.New("login submit button not found")
	}
	if err := browser.SafeClick(submit); err != nil {
		return err
	}
	clock.SmartWait(timing.PageLoad, 2.0)

	if !IsSignedIn(page, loc) {
		return errors.New("login submitted but signed-in state not reached")
	}

	logger.Info("signed in")
	return nil
}

// IsSignedIn checks the page for user-panel markers that only render for an
// authenticated session.
func IsSignedIn(page browser.Page, loc *locator.Locator) bool {
	return loc.FindBySelectors(signedInSelectors, 3*time.Second) != nil
}
