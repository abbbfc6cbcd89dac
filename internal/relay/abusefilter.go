package relay

import (
	"strings"
	"sync"
	"time"
)

// defaultBotPatterns are case-insensitive substrings of user-agent strings
// belonging to known crawlers and social-preview fetchers. Preview bots hit
// smart links every time someone pastes one into a chat, and none of those
// hits are real listeners.
var defaultBotPatterns = []string{
	"bot",
	"crawler",
	"spider",
	"crawling",
	"facebookexternalhit",
	"embedly",
	"slackbot",
	"discordbot",
	"whatsapp",
	"telegrambot",
	"preview",
	"nuzzel",
	"vkshare",
	"bitlybot",
	"tumblr",
	"pinterest",
	"skypeuripreview",
	"linkedinbot",
	"twitterbot",
	"bingpreview",
}

type dedupKey struct {
	ip       string
	trackID  string
	provider string
}

// AbuseFilter owns the relay's admission state: a per-IP rate-limit map and
// a duplicate-click map. Both are process-local and best-effort: under a
// horizontally scaled deployment each instance filters independently, which
// is accepted, not a bug to engineer away.
//
// Entries older than sweepFactor times their window are evicted during
// admission checks, at most once per window, so the maps stay bounded
// without a background goroutine.
type AbuseFilter struct {
	botPatterns []string
	rateWindow  time.Duration
	dedupWindow time.Duration
	now         func() time.Time

	mu             sync.Mutex
	lastAdmit      map[string]time.Time
	lastClick      map[dedupKey]time.Time
	lastRateSweep  time.Time
	lastDedupSweep time.Time
}

const sweepFactor = 5

// NewAbuseFilter creates an admission filter with the given windows.
// A nil or empty patterns slice selects the default bot signature set.
func NewAbuseFilter(rateWindow, dedupWindow time.Duration, patterns []string) *AbuseFilter {
	if len(patterns) == 0 {
		patterns = defaultBotPatterns
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return &AbuseFilter{
		botPatterns: lowered,
		rateWindow:  rateWindow,
		dedupWindow: dedupWindow,
		now:         time.Now,
		lastAdmit:   make(map[string]time.Time),
		lastClick:   make(map[dedupKey]time.Time),
	}
}

// SetClock overrides the filter's time source (useful for testing).
func (f *AbuseFilter) SetClock(now func() time.Time) {
	f.now = now
}

// IsBot reports whether the user-agent matches a known bot signature.
func (f *AbuseFilter) IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, p := range f.botPatterns {
		if strings.Contains(ua, p) {
			return true
		}
	}
	return false
}

// AdmitIP records an admission attempt for the IP and reports whether it is
// allowed. A prior admission within the rate window rejects the request.
func (f *AbuseFilter) AdmitIP(ip string) bool {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweepRateLocked(now)

	if last, ok := f.lastAdmit[ip]; ok && now.Sub(last) < f.rateWindow {
		return false
	}
	f.lastAdmit[ip] = now
	return true
}

// AdmitClick reports whether a click with this (ip, track, provider)
// signature is fresh. A matching click within the dedup window is a
// double-click or client retry and must not be re-persisted or re-dispatched.
func (f *AbuseFilter) AdmitClick(ip, trackID, provider string) bool {
	now := f.now()
	key := dedupKey{ip: ip, trackID: trackID, provider: provider}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweepDedupLocked(now)

	if last, ok := f.lastClick[key]; ok && now.Sub(last) < f.dedupWindow {
		return false
	}
	f.lastClick[key] = now
	return true
}

func (f *AbuseFilter) sweepRateLocked(now time.Time) {
	if now.Sub(f.lastRateSweep) < f.rateWindow {
		return
	}
	f.lastRateSweep = now
	cutoff := now.Add(-sweepFactor * f.rateWindow)
	for ip, seen := range f.lastAdmit {
		if seen.Before(cutoff) {
			delete(f.lastAdmit, ip)
		}
	}
}

func (f *AbuseFilter) sweepDedupLocked(now time.Time) {
	if now.Sub(f.lastDedupSweep) < f.dedupWindow {
		return
	}
	f.lastDedupSweep = now
	cutoff := now.Add(-sweepFactor * f.dedupWindow)
	for key, seen := range f.lastClick {
		if seen.Before(cutoff) {
			delete(f.lastClick, key)
		}
	}
}
