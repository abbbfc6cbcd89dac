package domain

import (
	"strings"
	"time"
)

// EventType enumerates the kinds of visitor events the relay accepts.
type EventType string

const (
	EventPageview EventType = "pageview"
	EventClick    EventType = "click"
)

// Known streaming providers. The provider field is stored as-is so new
// platforms can be added without a schema change.
const (
	ProviderSpotify = "spotify"
	ProviderApple   = "apple"
	ProviderYouTube = "youtube"
	ProviderDeezer  = "deezer"
)

// ButtonPosition identifies where on the page the clicked button sat.
type ButtonPosition string

const (
	PositionHero ButtonPosition = "hero"
	PositionList ButtonPosition = "list"
)

// Visit represents a single page load of a smart-link page.
// Created once per page load and never mutated.
type Visit struct {
	ID          string            `json:"id"`
	FBP         *string           `json:"fbp,omitempty"`
	FBC         *string           `json:"fbc,omitempty"`
	IPTruncated string            `json:"ip_truncated"`
	UserAgent   string            `json:"user_agent"`
	UTM         map[string]string `json:"utm_parameters,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ClickEvent represents one outbound-link click tied to a Visit.
type ClickEvent struct {
	ID             string         `json:"id"`
	VisitID        string         `json:"visit_id"`
	Type           EventType      `json:"type"`
	Provider       string         `json:"provider"`
	TrackID        string         `json:"track_id"`
	ButtonPosition ButtonPosition `json:"button_position"`
	EventTime      time.Time      `json:"event_time"`
	SourceEventID  string         `json:"source_event_id,omitempty"`
}

// TruncateIP masks the last octet of an IPv4 address for privacy-preserving
// storage: "1.2.3.4" → "1.2.3.*". Anything that does not look like a dotted
// quad (IPv6, garbage) is masked wholesale rather than stored raw.
func TruncateIP(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return "*"
	}
	return strings.Join(parts[:3], ".") + ".*"
}
