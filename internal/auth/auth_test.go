package auth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/forum-autosign/internal/browser"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/locator"
	"github.com/yourusername/forum-autosign/internal/timing"
)

type fakeField struct {
	value   string
	cleared bool
	clicks  int
	visible bool
	enabled bool
}

func (f *fakeField) Click() error                     { f.clicks++; return nil }
func (f *fakeField) Input(s string) error             { f.value += s; return nil }
func (f *fakeField) Clear() error                     { f.cleared = true; f.value = ""; return nil }
func (f *fakeField) Backspace() error                 { return nil }
func (f *fakeField) Text() (string, error)            { return f.value, nil }
func (f *fakeField) Attribute(string) (string, error) { return "", nil }
func (f *fakeField) Visible() (bool, error)           { return f.visible, nil }
func (f *fakeField) Enabled() (bool, error)           { return f.enabled, nil }
func (f *fakeField) ScrollIntoView() error            { return nil }

type fakeLoginPage struct {
	elements    map[string]browser.Element
	navigations []string
}

func (f *fakeLoginPage) Navigate(u string) error {
	f.navigations = append(f.navigations, u)
	return nil
}
func (f *fakeLoginPage) URL() (string, error)           { return "", nil }
func (f *fakeLoginPage) ScrollBy(float64) error         { return nil }
func (f *fakeLoginPage) ScrollTop() (float64, error)    { return 0, nil }
func (f *fakeLoginPage) ScrollHeight() (float64, error) { return 0, nil }
func (f *fakeLoginPage) Find(_ browser.QueryKind, expr string, _ time.Duration) (browser.Element, error) {
	if el, ok := f.elements[expr]; ok {
		return el, nil
	}
	return nil, browser.ErrElementNotFound
}
func (f *fakeLoginPage) FindAll(_ browser.QueryKind, expr string) ([]browser.Element, error) {
	return nil, nil
}

func fastClock() *timing.Model {
	return timing.New(
		timing.WithRand(rand.New(rand.NewSource(1))),
		timing.WithSleeper(func(time.Duration) {}),
	)
}

func instantTyping(t *testing.T) {
	t.Helper()
	orig := typeCredential
	typeCredential = func(el browser.Element, s string) error { return el.Input(s) }
	t.Cleanup(func() { typeCredential = orig })
}

func loginConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Site.BaseURL = "https://forum.example.com"
	cfg.Site.Username = "alice"
	cfg.Site.Password = "s3cret"
	return cfg
}

func TestSignInFillsAndSubmitsForm(t *testing.T) {
	instantTyping(t)

	username := &fakeField{visible: true, enabled: true}
	password := &fakeField{visible: true, enabled: true}
	submit := &fakeField{visible: true, enabled: true}
	page := &fakeLoginPage{elements: map[string]browser.Element{
		"input[name='username']":    username,
		"input[name='password']":    password,
		"button[name='loginsubmit']": submit,
		"#um":                       &fakeField{visible: true, enabled: true},
	}}

	cfg := loginConfig()
	err := SignIn(page, locator.New(page, time.Millisecond), fastClock(), cfg)

	require.NoError(t, err)
	assert.Equal(t, []string{cfg.LoginURL()}, page.navigations)
	assert.True(t, username.cleared)
	assert.Equal(t, "alice", username.value)
	assert.Equal(t, "s3cret", password.value)
	assert.Equal(t, 1, submit.clicks)
}

func TestSignInFailsWhenFormMissing(t *testing.T) {
	instantTyping(t)

	page := &fakeLoginPage{elements: map[string]browser.Element{}}
	err := SignIn(page, locator.New(page, time.Millisecond), fastClock(), loginConfig())

	assert.Error(t, err)
}

func TestSignInFailsWhenStillSignedOut(t *testing.T) {
	instantTyping(t)

	page := &fakeLoginPage{elements: map[string]browser.Element{
		"input[name='username']":    &fakeField{visible: true, enabled: true},
		"input[name='password']":    &fakeField{visible: true, enabled: true},
		"button[name='loginsubmit']": &fakeField{visible: true, enabled: true},
		// no signed-in marker appears after submit
	}}

	err := SignIn(page, locator.New(page, time.Millisecond), fastClock(), loginConfig())
	assert.Error(t, err)
}

func TestIsSignedIn(t *testing.T) {
	signedIn := &fakeLoginPage{elements: map[string]browser.Element{
		"a[href*='action=logout']": &fakeField{visible: true, enabled: true},
	}}
	signedOut := &fakeLoginPage{elements: map[string]browser.Element{}}

	assert.True(t, IsSignedIn(signedIn, locator.New(signedIn, time.Millisecond)))
	assert.False(t, IsSignedIn(signedOut, locator.New(signedOut, time.Millisecond)))
}
