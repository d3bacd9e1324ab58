package browser

import (
	"math/rand"
	"time"
	"unicode"
)

var (
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
	sleep = time.Sleep
)

// HumanScroll scrolls the page downward in small randomized steps the way a
// reader skims a listing, with an occasional upward correction.
func HumanScroll(p Page) {
	steps := 3 + rng.Intn(4)
	for i := 0; i < steps; i++ {
		_ = p.ScrollBy(float64(200 + rng.Intn(400)))
		sleep(randomDelay(150*time.Millisecond, 450*time.Millisecond))
	}

	if rng.Float64() < 0.15 {
		_ = p.ScrollBy(-float64(30 + rng.Intn(80)))
		sleep(randomDelay(100*time.Millisecond, 300*time.Millisecond))
	}
}

// ScrollToBottom keeps scrolling until the page offset stops advancing.
func ScrollToBottom(p Page) {
	last := -1.0
	for i := 0; i < 12; i++ {
		_ = p.ScrollBy(800)
		sleep(randomDelay(100*time.Millisecond, 250*time.Millisecond))

		top, err := p.ScrollTop()
		if err != nil {
			return
		}
		if top <= last {
			return
		}
		last = top
	}
}

// SafeClick brings the element into view before clicking, retrying once on
// failure.
func SafeClick(el Element) error {
	_ = el.ScrollIntoView()
	sleep(randomDelay(100*time.Millisecond, 300*time.Millisecond))

	if err := el.Click(); err == nil {
		return nil
	}
	sleep(randomDelay(200*time.Millisecond, 500*time.Millisecond))
	return el.Click()
}

// HumanType types text one rune at a time with variable keystroke delays and
// the occasional corrected typo.
func HumanType(el Element, text string) error {
	runes := []rune(text)
	for i, r := range runes {
		if rng.Float64() < 0.02 {
			if wrong, ok := adjacentKey(r); ok {
				_ = el.Input(string(wrong))
				sleep(randomDelay(100*time.Millisecond, 200*time.Millisecond))
				_ = el.Backspace()
				sleep(randomDelay(100*time.Millisecond, 200*time.Millisecond))
			}
		}

		if err := el.Input(string(r)); err != nil {
			return err
		}
		sleep(keystrokeDelay(i))
	}
	return nil
}

func randomDelay(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}

// keystrokeDelay is slower for the first few characters and occasionally
// pauses mid-word.
func keystrokeDelay(position int) time.Duration {
	base := 150 * time.Millisecond
	if position < 5 {
		base = 200 * time.Millisecond
	}
	if rng.Float64() < 0.1 {
		base = randomDelay(300*time.Millisecond, 800*time.Millisecond)
	}

	factor := 1.0 + (rng.Float64()*2-1)*0.4
	return time.Duration(float64(base) * factor)
}

// adjacentKey returns a plausible QWERTY typo for lowercase latin letters.
// Non-latin input (CJK text goes through an IME, not key presses) never
// produces typos.
func adjacentKey(r rune) (rune, bool) {
	if r > unicode.MaxASCII || !unicode.IsLower(r) {
		return r, false
	}

	typoMap := map[rune][]rune{
		'a': {'s', 'q', 'z'},
		'b': {'v', 'g', 'n'},
		'c': {'x', 'd', 'v'},
		'd': {'s', 'e', 'f', 'c'},
		'e': {'w', 'r', 'd'},
		'f': {'d', 'r', 'g', 'v'},
		'g': {'f', 't', 'h', 'b'},
		'h': {'g', 'y', 'j', 'n'},
		'i': {'u', 'o', 'k'},
		'j': {'h', 'u', 'k', 'm'},
		'k': {'j', 'i', 'l'},
		'l': {'k', 'o', 'p'},
		'm': {'n', 'j', 'k'},
		'n': {'b', 'h', 'm'},
		'o': {'i', 'p', 'l'},
		'p': {'o', 'l'},
		'q': {'w', 'a'},
		'r': {'e', 't', 'f'},
		's': {'a', 'w', 'd', 'x'},
		't': {'r', 'y', 'g'},
		'u': {'y', 'i', 'j'},
		'v': {'c', 'f', 'b'},
		'w': {'q', 'e', 's'},
		'x': {'z', 's', 'c'},
		'y': {'t', 'u', 'h'},
		'z': {'a', 's', 'x'},
	}

	typos, ok := typoMap[r]
	if !ok || len(typos) == 0 {
		return r, false
	}
	return typos[rng.Intn(len(typos))], true
}
