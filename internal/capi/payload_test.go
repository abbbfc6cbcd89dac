package capi

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBuildEventsDualPayload(t *testing.T) {
	fbp := "fb.1.1700000000000.42"
	now := time.Unix(1_700_000_123, 0)

	events := BuildEvents(ClickContext{
		EventID:   "e1",
		IP:        "9.9.9.9",
		UserAgent: "Mozilla/5.0",
		FBP:       &fbp,
		Provider:  "spotify",
		TrackID:   "say-yes",
		Position:  "hero",
		SourceURL: "https://links.example.com/music/say-yes",
		UTM:       map[string]string{"utm_source": "ig"},
	}, now, "https://links.example.com")

	if len(events) != 2 {
		t.Fatalf("BuildEvents returned %d events, want 2", len(events))
	}

	custom, lead := events[0], events[1]
	if custom.EventName != "OutboundClick" {
		t.Errorf("events[0].EventName = %q, want OutboundClick", custom.EventName)
	}
	if lead.EventName != "Lead" {
		t.Errorf("events[1].EventName = %q, want Lead", lead.EventName)
	}
	if custom.EventID != "e1" || lead.EventID != "e1_lead" {
		t.Errorf("event ids = %q, %q; want e1, e1_lead", custom.EventID, lead.EventID)
	}
	if custom.EventTime != now.Unix() {
		t.Errorf("EventTime = %d, want %d", custom.EventTime, now.Unix())
	}
	if custom.ActionSource != "website" {
		t.Errorf("ActionSource = %q, want website", custom.ActionSource)
	}
	if custom.CustomData["utm_source"] != "ig" {
		t.Errorf("custom_data missing utm_source: %v", custom.CustomData)
	}
	if lead.CustomData["content_name"] != "say-yes - spotify" {
		t.Errorf("content_name = %v", lead.CustomData["content_name"])
	}
	if lead.CustomData["currency"] != "USD" || lead.CustomData["value"] != 1.0 {
		t.Errorf("lead value fields = %v / %v", lead.CustomData["value"], lead.CustomData["currency"])
	}
}

func TestBuildEventsOmitsAbsentIdentifiers(t *testing.T) {
	events := BuildEvents(ClickContext{
		EventID:   "e2",
		IP:        "9.9.9.9",
		UserAgent: "Mozilla/5.0",
		Provider:  "apple",
		TrackID:   "say-yes",
		Position:  "list",
	}, time.Now(), "https://links.example.com")

	data, err := json.Marshal(events[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if strings.Contains(body, "fbp") || strings.Contains(body, "fbc") {
		t.Errorf("user_data must omit fbp/fbc when cookies are absent, got %s", body)
	}
	if !strings.Contains(body, `"client_ip_address":"9.9.9.9"`) {
		t.Errorf("user_data missing client ip: %s", body)
	}
}

func TestBuildEventsSourceURLFallback(t *testing.T) {
	events := BuildEvents(ClickContext{
		EventID:  "e3",
		Provider: "deezer",
		TrackID:  "say-yes",
	}, time.Now(), "https://links.example.com")

	if events[0].EventSourceURL != "https://links.example.com" {
		t.Errorf("EventSourceURL = %q, want the configured default", events[0].EventSourceURL)
	}
}
