// Package humanlike drives the visible site activity: browsing listing pages
// the way a reader would, discovering reply candidates, and posting replies.
// Each activity is isolated so one failure never aborts the run.
package humanlike

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/forum-autosign/internal/browser"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/locator"
	"github.com/yourusername/forum-autosign/internal/logger"
	"github.com/yourusername/forum-autosign/internal/timing"
)

// maxCandidates caps how many listing links are considered per discovery pass
const maxCandidates = 20

// minTitleRunes filters out pagination digits and icon links masquerading as
// thread titles.
const minTitleRunes = 5

// maxTitleRunes clamps stored titles
const maxTitleRunes = 50

// Discuz selector chains, most specific first
var (
	nextPageSelectors = []string{
		"#fd_page_bottom .pg a.nxt",
		"#fd_page_top .pg a.nxt",
		"a.nxt",
		"a[title*='下一页']",
		"//a[contains(text(), '下一页')]",
	}

	postLinkSelectors = []string{
		"tbody[id^='normalthread'] a.xst",
		"a.xst",
		"th a[href*='thread-']",
	}

	replyBoxSelectors = []string{
		"#fastpostmessage",
		"textarea[name='message']",
		"#e_textarea",
		"textarea[id*='post']",
		"textarea[class*='reply']",
	}

	submitSelectors = []string{
		"#fastpostsubmit",
		"input[name='replysubmit']",
		"button[type='submit']",
	}
)

// ReplyTarget is a discovered thread eligible for a reply
type ReplyTarget struct {
	URL   string
	Title string
}

// Outcome summarizes one activity run for logging and notification
type Outcome struct {
	BrowseSuccess bool
	BrowseMessage string
	ReplySuccess  bool
	ReplyMessage  string
	ReplyDetails  string
}

// ReplyWriter produces reply text for a post title
type ReplyWriter interface {
	GenerateReply(ctx context.Context, title string) string
}

// History tracks which threads have already been replied to
type History interface {
	HasReplied(threadURL string) (bool, error)
	SaveReply(threadURL, title, content string) error
}

// Orchestrator runs the human-like activity flows against one page
type Orchestrator struct {
	page  browser.Page
	loc   *locator.Locator
	clock *timing.Model
	gen   ReplyWriter
	hist  History
	cfg   *config.Config
	rng   *rand.Rand

	// injectable browser gestures, overridden in tests
	scroll         func(browser.Page)
	scrollToBottom func(browser.Page)
	click          func(browser.Element) error
	typeText       func(browser.Element, string) error
}

// New builds an orchestrator wired to the real human-input gestures
func New(page browser.Page, loc *locator.Locator, clock *timing.Model, gen ReplyWriter, hist History, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		page:           page,
		loc:            loc,
		clock:          clock,
		gen:            gen,
		hist:           hist,
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		scroll:         browser.HumanScroll,
		scrollToBottom: browser.ScrollToBottom,
		click:          browser.SafeClick,
		typeText:       browser.HumanType,
	}
}

// RandomBrowsePages reads pageCount listing pages, moving between them with
// real pagination clicks. Running out of pages ends the browse early without
// error; only a failure to reach the listing at all is an error.
func (o *Orchestrator) RandomBrowsePages(pageCount int) error {
	if err := o.page.Navigate(o.cfg.ListingURL()); err != nil {
		return fmt.Errorf("failed to open forum listing: %w", err)
	}
	o.clock.SmartWait(timing.PageLoad, 1.5)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		logger.Info("browsing listing page", "page", pageNum+1)
		o.scroll(o.page)

		// only the final page gets a long read; intermediate pages move on
		// right after the pagination delay
		if pageNum == pageCount-1 {
			if pageNum == 0 {
				o.clock.AdaptiveWait(timing.Reading, timing.Complex)
			} else {
				o.clock.SmartWait(timing.Reading, 1.2)
			}
			break
		}
		if !o.advanceToNextPage() {
			logger.Info("no further pages, ending browse early", "browsed", pageNum+1)
			break
		}
	}
	return nil
}

// advanceToNextPage clicks the next-page link and verifies the listing
// actually moved. Returns false when there is no next page or the click did
// not land on a paginated URL.
func (o *Orchestrator) advanceToNextPage() bool {
	next := o.loc.FindBySelectors(nextPageSelectors, 2*time.Second)
	if next == nil {
		return false
	}

	if err := o.click(next); err != nil {
		logger.Warn("pagination click failed", "error", err)
		return false
	}
	o.clock.SmartWait(timing.Navigation, 1.5)

	current, err := o.page.URL()
	if err != nil || !strings.Contains(current, "page=") {
		logger.Warn("pagination did not advance", "url", current)
		return false
	}
	return true
}

// FindReplyTargets discovers up to count reply candidates from the second
// listing page. Page one is reached first so the pagination click looks like
// a continuation of normal reading; when the click fails, discovery degrades
// to loading page two directly.
func (o *Orchestrator) FindReplyTargets(count int) ([]ReplyTarget, error) {
	if err := o.page.Navigate(o.cfg.ListingURL()); err != nil {
		return nil, fmt.Errorf("failed to open forum listing: %w", err)
	}
	o.clock.SmartWait(timing.PageLoad, 1.5)
	o.scroll(o.page)

	if !o.advanceToNextPage() {
		logger.Warn("falling back to direct page 2 load")
		if err := o.page.Navigate(o.cfg.ListingPageURL(2)); err != nil {
			return nil, fmt.Errorf("failed to open listing page 2: %w", err)
		}
		o.clock.SmartWait(timing.PageLoad, 1.5)
	}

	candidates := o.collectCandidates()
	if len(candidates) == 0 {
		return nil, errors.New("no reply candidates found on listing page")
	}

	targets := make([]ReplyTarget, 0, len(candidates))
	for _, c := range candidates {
		replied, err := o.hist.HasReplied(c.URL)
		if err != nil {
			logger.Warn("reply history lookup failed", "url", c.URL, "error", err)
		}
		if replied {
			continue
		}
		targets = append(targets, c)
	}

	o.rng.Shuffle(len(targets), func(i, j int) {
		targets[i], targets[j] = targets[j], targets[i]
	})
	if len(targets) > count {
		targets = targets[:count]
	}

	logger.Info("reply targets selected", "candidates", len(candidates), "selected", len(targets))
	return targets, nil
}

// collectCandidates reads thread links off the current listing page using the
// first selector chain entry that matches anything, deduplicated by URL.
func (o *Orchestrator) collectCandidates() []ReplyTarget {
	var elements []browser.Element
	for _, sel := range postLinkSelectors {
		els, err := o.page.FindAll(locator.KindOf(sel), sel)
		if err != nil || len(els) == 0 {
			continue
		}
		elements = els
		break
	}
	if len(elements) > maxCandidates {
		elements = elements[:maxCandidates]
	}

	seen := make(map[string]bool)
	out := make([]ReplyTarget, 0, len(elements))
	for _, el := range elements {
		title, err := el.Text()
		if err != nil {
			continue
		}
		title = strings.TrimSpace(title)
		if utf8.RuneCountInString(title) < minTitleRunes {
			continue
		}
		if runes := []rune(title); len(runes) > maxTitleRunes {
			title = string(runes[:maxTitleRunes])
		}

		href, err := el.Attribute("href")
		if err != nil || href == "" {
			continue
		}
		full := o.resolveURL(href)
		if full == "" || seen[full] {
			continue
		}
		seen[full] = true
		out = append(out, ReplyTarget{URL: full, Title: title})
	}
	return out
}

func (o *Orchestrator) resolveURL(href string) string {
	if strings.HasPrefix(href, "javascript:") {
		return ""
	}
	base, err := url.Parse(o.cfg.Site.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ReplyToPost opens the thread, reads it, and posts generated reply text
// through the quick-reply form.
func (o *Orchestrator) ReplyToPost(ctx context.Context, target ReplyTarget) error {
	logger.Info("replying to post", "title", target.Title)

	if err := o.page.Navigate(target.URL); err != nil {
		return fmt.Errorf("failed to open thread: %w", err)
	}
	o.clock.SmartWait(timing.PageLoad, 1.5)
	o.scroll(o.page)

	box := o.locateReplyBox()
	if box == nil {
		return errors.New("reply box not found")
	}
	if err := box.ScrollIntoView(); err != nil {
		logger.Debug("failed to scroll reply box into view", "error", err)
	}

	text := o.gen.GenerateReply(ctx, target.Title)
	if err := box.Clear(); err != nil {
		return fmt.Errorf("failed to clear reply box: %w", err)
	}
	if err := o.typeText(box, text); err != nil {
		return fmt.Errorf("failed to enter reply text: %w", err)
	}
	o.clock.SmartWait(timing.Navigation, 1.3)

	submit := o.loc.FindClickableBySelectors(submitSelectors, 0)
	if submit == nil {
		return errors.New("reply submit button not found")
	}
	if err := o.click(submit); err != nil {
		return fmt.Errorf("failed to submit reply: %w", err)
	}
	o.clock.SmartWait(timing.Navigation, 1.5)

	if err := o.hist.SaveReply(target.URL, target.Title, text); err != nil {
		logger.Warn("failed to record reply", "url", target.URL, "error", err)
	}

	logger.Info("reply posted", "title", target.Title, "reply", text)
	return nil
}

// locateReplyBox looks for the quick-reply textarea in the current viewport
// first, then scrolls to the bottom of the thread and retries with a longer
// wait.
func (o *Orchestrator) locateReplyBox() browser.Element {
	if box := o.loc.FindBySelectors(replyBoxSelectors, 2*time.Second); box != nil {
		return box
	}
	o.scrollToBottom(o.page)
	return o.loc.FindBySelectors(replyBoxSelectors, 3*time.Second)
}

// PerformActivitiesWithResults runs the enabled activities in order and
// reports per-activity outcomes. Failures are recorded, never propagated;
// the run itself always completes.
func (o *Orchestrator) PerformActivitiesWithResults(ctx context.Context) Outcome {
	out := Outcome{
		BrowseMessage: "random browsing skipped",
		ReplyMessage:  "reply activity skipped",
	}

	if o.cfg.Activity.EnableRandomBrowsing {
		if err := o.RandomBrowsePages(o.cfg.Activity.BrowsePageCount); err != nil {
			logger.Error("random browsing failed", "error", err)
			out.BrowseMessage = err.Error()
		} else {
			out.BrowseSuccess = true
			out.BrowseMessage = fmt.Sprintf("browsed %d listing pages", o.cfg.Activity.BrowsePageCount)
		}
	}

	if o.cfg.Activity.EnableReply {
		out.ReplySuccess, out.ReplyMessage, out.ReplyDetails = o.runReplies(ctx)
	}

	return out
}

func (o *Orchestrator) runReplies(ctx context.Context) (bool, string, string) {
	targets, err := o.FindReplyTargets(o.cfg.Activity.ReplyCount)
	if err != nil {
		logger.Error("reply target discovery failed", "error", err)
		return false, "no reply targets found", ""
	}
	if len(targets) == 0 {
		return false, "no reply targets found", ""
	}

	succeeded := 0
	var failedTitles []string
	for i, target := range targets {
		if i > 0 {
			o.clock.SmartWait(timing.ReplyInterval, 1.3)
		}

		if err := o.ReplyToPost(ctx, target); err != nil {
			logger.Error("reply failed", "title", target.Title, "error", err)
			if len(failedTitles) < 3 {
				failedTitles = append(failedTitles, target.Title)
			}
			continue
		}
		succeeded++
	}

	message := fmt.Sprintf("%d/%d replies succeeded", succeeded, len(targets))
	details := ""
	if len(failedTitles) > 0 {
		details = "failed: " + strings.Join(failedTitles, "、")
	}
	// a partial batch is still a success; the message carries the exact count
	return succeeded > 0, message, details
}
