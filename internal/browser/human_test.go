package browser

import (
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func instantSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

type scrollPage struct {
	top    float64
	height float64
	deltas []float64
}

func (s *scrollPage) Navigate(string) error  { return nil }
func (s *scrollPage) URL() (string, error)   { return "", nil }
func (s *scrollPage) ScrollBy(dy float64) error {
	s.deltas = append(s.deltas, dy)
	s.top += dy
	if s.top > s.height {
		s.top = s.height
	}
	if s.top < 0 {
		s.top = 0
	}
	return nil
}
func (s *scrollPage) ScrollTop() (float64, error)    { return s.top, nil }
func (s *scrollPage) ScrollHeight() (float64, error) { return s.height, nil }
func (s *scrollPage) Find(QueryKind, string, time.Duration) (Element, error) {
	return nil, ErrElementNotFound
}
func (s *scrollPage) FindAll(QueryKind, string) ([]Element, error) { return nil, nil }

func TestHumanScrollMovesDownInSteps(t *testing.T) {
	instantSleep(t)
	p := &scrollPage{height: 100000}

	HumanScroll(p)

	assert.GreaterOrEqual(t, len(p.deltas), 3)
	downward := 0
	for _, d := range p.deltas {
		if d > 0 {
			downward++
			assert.LessOrEqual(t, d, 600.0)
		}
	}
	assert.GreaterOrEqual(t, downward, 3)
}

func TestScrollToBottomStopsWhenOffsetStalls(t *testing.T) {
	instantSleep(t)
	p := &scrollPage{height: 2000}

	ScrollToBottom(p)

	assert.Equal(t, 2000.0, p.top)
	assert.Less(t, len(p.deltas), 12, "stops once the offset stops advancing")
}

type clickElement struct {
	failures int
	clicks   int
	scrolled bool
}

func (c *clickElement) Click() error {
	c.clicks++
	if c.clicks <= c.failures {
		return ErrElementNotFound
	}
	return nil
}
func (c *clickElement) Input(string) error              { return nil }
func (c *clickElement) Clear() error                    { return nil }
func (c *clickElement) Backspace() error                { return nil }
func (c *clickElement) Text() (string, error)           { return "", nil }
func (c *clickElement) Attribute(string) (string, error) { return "", nil }
func (c *clickElement) Visible() (bool, error)          { return true, nil }
func (c *clickElement) Enabled() (bool, error)          { return true, nil }
func (c *clickElement) ScrollIntoView() error           { c.scrolled = true; return nil }

func TestSafeClickRetriesOnce(t *testing.T) {
	instantSleep(t)

	el := &clickElement{failures: 1}
	assert.NoError(t, SafeClick(el))
	assert.True(t, el.scrolled)
	assert.Equal(t, 2, el.clicks)

	stubborn := &clickElement{failures: 5}
	assert.Error(t, SafeClick(stubborn))
	assert.Equal(t, 2, stubborn.clicks)
}

type typingElement struct {
	value      string
	backspaces int
}

func (e *typingElement) Click() error { return nil }
func (e *typingElement) Input(s string) error {
	e.value += s
	return nil
}
func (e *typingElement) Clear() error { e.value = ""; return nil }
func (e *typingElement) Backspace() error {
	e.backspaces++
	r := []rune(e.value)
	if len(r) > 0 {
		e.value = string(r[:len(r)-1])
	}
	return nil
}
func (e *typingElement) Text() (string, error)           { return e.value, nil }
func (e *typingElement) Attribute(string) (string, error) { return "", nil }
func (e *typingElement) Visible() (bool, error)          { return true, nil }
func (e *typingElement) Enabled() (bool, error)          { return true, nil }
func (e *typingElement) ScrollIntoView() error           { return nil }

func TestHumanTypeProducesExactText(t *testing.T) {
	instantSleep(t)

	el := &typingElement{}
	assert.NoError(t, HumanType(el, "hello world"))
	assert.Equal(t, "hello world", el.value)
}

func TestHumanTypeNeverMistypesCJK(t *testing.T) {
	instantSleep(t)

	el := &typingElement{}
	assert.NoError(t, HumanType(el, "感谢楼主分享"))
	assert.Equal(t, "感谢楼主分享", el.value)
	assert.Zero(t, el.backspaces)
}

func TestAdjacentKeyOnlyForLowercaseLatin(t *testing.T) {
	typo, ok := adjacentKey('a')
	assert.True(t, ok)
	assert.True(t, unicode.IsLower(typo))

	_, ok = adjacentKey('感')
	assert.False(t, ok)
	_, ok = adjacentKey('A')
	assert.False(t, ok)
	_, ok = adjacentKey('7')
	assert.False(t, ok)
}
