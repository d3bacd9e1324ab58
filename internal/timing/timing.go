// Package timing centralizes every human-like pause the automation takes.
// All waits are randomized above a per-category floor so run timing never
// collapses into a detectable fixed rhythm.
package timing

import (
	"math/rand"
	"time"

	"github.com/yourusername/forum-autosign/internal/logger"
)

// Category names a kind of pause with a fixed minimum duration
type Category int

const (
	// PageLoad follows a full page navigation
	PageLoad Category = iota
	// Navigation follows an in-page transition such as a pagination click
	Navigation
	// Reading simulates dwelling on visible content
	Reading
	// ReplyInterval spaces consecutive reply submissions
	ReplyInterval
)

// Complexity scales a Reading wait by how dense the content is
type Complexity int

const (
	Simple Complexity = iota
	Normal
	Complex
)

// defaultReplyInterval is the floor between consecutive replies. Posting
// faster than this trips forum flood control.
const defaultReplyInterval = 15 * time.Second

var categoryFloors = map[Category]time.Duration{
	PageLoad:   2 * time.Second,
	Navigation: 1500 * time.Millisecond,
	Reading:    3 * time.Second,
}

var complexityScale = map[Complexity]float64{
	Simple:  0.6,
	Normal:  1.0,
	Complex: 1.6,
}

// Model produces randomized waits. The zero value is not usable; construct
// with New.
type Model struct {
	rng           *rand.Rand
	sleep         func(time.Duration)
	replyInterval time.Duration
}

// Option configures a Model
type Option func(*Model)

// WithSleeper replaces the sleep function, letting tests run instantly
func WithSleeper(fn func(time.Duration)) Option {
	return func(m *Model) { m.sleep = fn }
}

// WithRand replaces the randomness source for deterministic tests
func WithRand(r *rand.Rand) Option {
	return func(m *Model) { m.rng = r }
}

// WithReplyInterval raises the reply spacing floor. Values below the default
// are ignored; the floor only ever moves up.
func WithReplyInterval(d time.Duration) Option {
	return func(m *Model) { m.setReplyInterval(d) }
}

// New returns a timing model seeded from the clock
func New(opts ...Option) *Model {
	m := &Model{
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:         time.Sleep,
		replyInterval: defaultReplyInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetReplyInterval adjusts the reply spacing floor, never below the default
func (m *Model) SetReplyInterval(d time.Duration) {
	m.setReplyInterval(d)
}

func (m *Model) setReplyInterval(d time.Duration) {
	if d < defaultReplyInterval {
		d = defaultReplyInterval
	}
	m.replyInterval = d
}

// SmartWait sleeps for a uniformly random duration in [floor, floor*scale]
// and returns how long it slept. Scales at or below 1 degenerate to exactly
// the floor.
func (m *Model) SmartWait(cat Category, scale float64) time.Duration {
	floor := m.floor(cat)
	d := floor
	if scale > 1 {
		span := time.Duration(float64(floor) * (scale - 1))
		d = floor + time.Duration(m.rng.Int63n(int64(span)+1))
	}

	logger.Debug("waiting", "category", cat.String(), "duration", d)
	m.sleep(d)
	return d
}

// AdaptiveWait is SmartWait with the scale derived from content complexity.
// The category floor always holds; complexity widens or narrows only the
// random headroom above it.
func (m *Model) AdaptiveWait(cat Category, level Complexity) time.Duration {
	scale, ok := complexityScale[level]
	if !ok {
		scale = 1.0
	}
	// 1.5 is the base headroom an average page gets above the floor
	return m.SmartWait(cat, 1+0.5*scale)
}

func (m *Model) floor(cat Category) time.Duration {
	if cat == ReplyInterval {
		return m.replyInterval
	}
	if d, ok := categoryFloors[cat]; ok {
		return d
	}
	return time.Second
}

func (c Category) String() string {
	switch c {
	case PageLoad:
		return "page_load"
	case Navigation:
		return "navigation"
	case Reading:
		return "reading"
	case ReplyInterval:
		return "reply_interval"
	}
	return "unknown"
}
