package capi

import (
	"fmt"
	"time"
)

// ClickContext carries everything the relay knows about one admitted click,
// used to derive the conversion events.
type ClickContext struct {
	EventID   string
	IP        string
	UserAgent string
	FBP       *string
	FBC       *string
	Provider  string
	TrackID   string
	Position  string
	SourceURL string
	UTM       map[string]string
}

// BuildEvents derives the two conversion events for an outbound click: a
// detailed OutboundClick custom event, and a standard Lead event that ad
// delivery can optimize against. defaultSourceURL fills in when the page did
// not report its own URL.
func BuildEvents(c ClickContext, now time.Time, defaultSourceURL string) []Event {
	user := UserData{
		ClientIPAddress: c.IP,
		ClientUserAgent: c.UserAgent,
	}
	if c.FBP != nil {
		user.FBP = *c.FBP
	}
	if c.FBC != nil {
		user.FBC = *c.FBC
	}

	sourceURL := c.SourceURL
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}

	custom := map[string]interface{}{
		"provider":   c.Provider,
		"track_id":   c.TrackID,
		"button_pos": c.Position,
	}
	lead := map[string]interface{}{
		"content_name":     fmt.Sprintf("%s - %s", c.TrackID, c.Provider),
		"content_category": "music_streaming",
		"value":            1.0,
		"currency":         "USD",
		"provider":         c.Provider,
		"track_id":         c.TrackID,
		"button_pos":       c.Position,
	}
	for k, v := range c.UTM {
		custom[k] = v
		lead[k] = v
	}

	ts := now.Unix()
	return []Event{
		{
			EventName:      "OutboundClick",
			EventTime:      ts,
			EventID:        c.EventID,
			ActionSource:   "website",
			EventSourceURL: sourceURL,
			UserData:       user,
			CustomData:     custom,
		},
		{
			EventName:      "Lead",
			EventTime:      ts,
			EventID:        c.EventID + "_lead",
			ActionSource:   "website",
			EventSourceURL: sourceURL,
			UserData:       user,
			CustomData:     lead,
		},
	}
}
