package relay

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestFilter(clock *fakeClock) *AbuseFilter {
	f := NewAbuseFilter(time.Second, 10*time.Second, nil)
	f.SetClock(clock.now)
	return f
}

func TestIsBot(t *testing.T) {
	f := NewAbuseFilter(time.Second, 10*time.Second, nil)

	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1)", true},
		{"facebookexternalhit/1.1", true},
		{"FACEBOOKEXTERNALHIT/1.1", true},
		{"TelegramBot (like TwitterBot)", true},
		{"WhatsApp/2.23.20", true},
		{"Slackbot-LinkExpanding 1.0", true},
		{"Pinterest/0.2", true},
		{"BingPreview/1.0b", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ua, func(t *testing.T) {
			if got := f.IsBot(tt.ua); got != tt.want {
				t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.want)
			}
		})
	}
}

func TestIsBotCustomPatterns(t *testing.T) {
	f := NewAbuseFilter(time.Second, 10*time.Second, []string{"scraperx"})

	if !f.IsBot("Mozilla/5.0 ScraperX/2.0") {
		t.Error("custom pattern should match case-insensitively")
	}
	// Custom patterns replace the defaults.
	if f.IsBot("Googlebot/2.1") {
		t.Error("default patterns should not apply when overridden")
	}
}

func TestAdmitIPWindow(t *testing.T) {
	clock := newFakeClock()
	f := newTestFilter(clock)

	if !f.AdmitIP("9.9.9.9") {
		t.Fatal("first request should be admitted")
	}
	if f.AdmitIP("9.9.9.9") {
		t.Error("second request inside the window should be rejected")
	}
	if !f.AdmitIP("8.8.8.8") {
		t.Error("a different IP should be admitted")
	}

	clock.advance(1100 * time.Millisecond)
	if !f.AdmitIP("9.9.9.9") {
		t.Error("request after the window should be admitted")
	}
}

func TestAdmitClickDedup(t *testing.T) {
	clock := newFakeClock()
	f := newTestFilter(clock)

	if !f.AdmitClick("9.9.9.9", "say-yes", "spotify") {
		t.Fatal("first click should be admitted")
	}
	if f.AdmitClick("9.9.9.9", "say-yes", "spotify") {
		t.Error("identical signature inside the window should be suppressed")
	}
	if !f.AdmitClick("9.9.9.9", "say-yes", "apple") {
		t.Error("different provider should be admitted")
	}
	if !f.AdmitClick("9.9.9.9", "other-track", "spotify") {
		t.Error("different track should be admitted")
	}
	if !f.AdmitClick("1.1.1.1", "say-yes", "spotify") {
		t.Error("different IP should be admitted")
	}

	clock.advance(11 * time.Second)
	if !f.AdmitClick("9.9.9.9", "say-yes", "spotify") {
		t.Error("same signature after the window should be admitted")
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	clock := newFakeClock()
	f := newTestFilter(clock)

	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		f.AdmitIP(ip)
		f.AdmitClick(ip, "say-yes", "spotify")
	}

	// Past sweepFactor times both windows everything is stale.
	clock.advance(sweepFactor*10*time.Second + time.Minute)
	f.AdmitIP("4.4.4.4")
	f.AdmitClick("4.4.4.4", "say-yes", "spotify")

	f.mu.Lock()
	rateLen, dedupLen := len(f.lastAdmit), len(f.lastClick)
	f.mu.Unlock()

	if rateLen != 1 {
		t.Errorf("rate map has %d entries after sweep, want 1", rateLen)
	}
	if dedupLen != 1 {
		t.Errorf("dedup map has %d entries after sweep, want 1", dedupLen)
	}
}
