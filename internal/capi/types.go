// Package capi sends server-side conversion events to the Meta Conversions API.
package capi

import "time"

// Config holds Meta Conversions API connection settings.
type Config struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	BaseURL       string
	Version       string
	Timeout       time.Duration
}

// UserData carries the identifying fields Meta uses for attribution matching.
// FBP/FBC are omitted from the payload entirely when absent; Meta rejects
// explicit nulls for these keys.
type UserData struct {
	ClientIPAddress string `json:"client_ip_address"`
	ClientUserAgent string `json:"client_user_agent"`
	FBP             string `json:"fbp,omitempty"`
	FBC             string `json:"fbc,omitempty"`
}

// Event is one conversion event in a Conversions API batch.
type Event struct {
	EventName      string                 `json:"event_name"`
	EventTime      int64                  `json:"event_time"`
	EventID        string                 `json:"event_id"`
	ActionSource   string                 `json:"action_source"`
	EventSourceURL string                 `json:"event_source_url,omitempty"`
	UserData       UserData               `json:"user_data"`
	CustomData     map[string]interface{} `json:"custom_data,omitempty"`
}

// eventsRequest is the envelope POSTed to /<version>/<pixel_id>/events.
type eventsRequest struct {
	Data          []Event `json:"data"`
	AccessToken   string  `json:"access_token"`
	TestEventCode string  `json:"test_event_code,omitempty"`
}
