package locator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/forum-autosign/internal/browser"
)

// fakeElement is a scriptable element for locator tests
type fakeElement struct {
	visible bool
	enabled bool
}

func (f *fakeElement) Click() error                    { return nil }
func (f *fakeElement) Input(string) error              { return nil }
func (f *fakeElement) Clear() error                    { return nil }
func (f *fakeElement) Backspace() error                { return nil }
func (f *fakeElement) Text() (string, error)           { return "", nil }
func (f *fakeElement) Attribute(string) (string, error) { return "", nil }
func (f *fakeElement) Visible() (bool, error)          { return f.visible, nil }
func (f *fakeElement) Enabled() (bool, error)          { return f.enabled, nil }
func (f *fakeElement) ScrollIntoView() error           { return nil }

// fakePage serves elements keyed by selector expression
type fakePage struct {
	elements map[string]browser.Element
	queried  []string
}

func (f *fakePage) Navigate(string) error           { return nil }
func (f *fakePage) URL() (string, error)            { return "", nil }
func (f *fakePage) ScrollBy(float64) error          { return nil }
func (f *fakePage) ScrollTop() (float64, error)     { return 0, nil }
func (f *fakePage) ScrollHeight() (float64, error)  { return 0, nil }

func (f *fakePage) Find(_ browser.QueryKind, expr string, _ time.Duration) (browser.Element, error) {
	f.queried = append(f.queried, expr)
	if el, ok := f.elements[expr]; ok {
		return el, nil
	}
	return nil, browser.ErrElementNotFound
}

func (f *fakePage) FindAll(_ browser.QueryKind, expr string) ([]browser.Element, error) {
	if el, ok := f.elements[expr]; ok {
		return []browser.Element{el}, nil
	}
	return nil, nil
}

func TestFindBySelectorsReturnsFirstMatch(t *testing.T) {
	target := &fakeElement{}
	page := &fakePage{elements: map[string]browser.Element{
		"#second": target,
		"#third":  &fakeElement{},
	}}

	loc := New(page, time.Second)
	el := loc.FindBySelectors([]string{"#first", "#second", "#third"}, 0)

	assert.Same(t, target, el)
	assert.Equal(t, []string{"#first", "#second"}, page.queried, "stops at first match")
}

func TestFindBySelectorsReturnsNilOnTotalMiss(t *testing.T) {
	page := &fakePage{elements: map[string]browser.Element{}}

	loc := New(page, time.Second)
	el := loc.FindBySelectors([]string{"#a", "#b"}, 0)

	assert.Nil(t, el)
	assert.Equal(t, []string{"#a", "#b"}, page.queried)
}

func TestFindClickableSkipsHiddenAndDisabled(t *testing.T) {
	hidden := &fakeElement{visible: false, enabled: true}
	disabled := &fakeElement{visible: true, enabled: false}
	good := &fakeElement{visible: true, enabled: true}
	page := &fakePage{elements: map[string]browser.Element{
		"#hidden":   hidden,
		"#disabled": disabled,
		"#good":     good,
	}}

	loc := New(page, time.Second)
	el := loc.FindClickableBySelectors([]string{"#hidden", "#disabled", "#good"}, 0)

	assert.Same(t, good, el)
}

func TestFindClickableReturnsNilWhenNothingUsable(t *testing.T) {
	page := &fakePage{elements: map[string]browser.Element{
		"#hidden": &fakeElement{visible: false, enabled: true},
	}}

	loc := New(page, time.Second)
	assert.Nil(t, loc.FindClickableBySelectors([]string{"#hidden", "#missing"}, 0))
}

func TestKindOfDispatch(t *testing.T) {
	assert.Equal(t, browser.QueryXPath, KindOf("//a[contains(text(), 'next')]"))
	assert.Equal(t, browser.QueryXPath, KindOf("(//div)[1]"))
	assert.Equal(t, browser.QueryXPath, KindOf(".//span"))
	assert.Equal(t, browser.QueryCSS, KindOf("#fastpostmessage"))
	assert.Equal(t, browser.QueryCSS, KindOf("a.nxt"))
}
