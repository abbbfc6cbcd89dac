package relay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ignite/click-relay/internal/domain"
)

// EventRequest is the JSON body the smart-link pages POST for both pageview
// and click events.
type EventRequest struct {
	EventID        string            `json:"event_id"`
	VisitID        string            `json:"visit_id"`
	PageEventID    string            `json:"page_event_id"`
	TrackID        string            `json:"track_id"`
	Provider       string            `json:"provider"`
	Position       string            `json:"position"`
	EventType      string            `json:"event_type"`
	UTMs           map[string]string `json:"utms"`
	RedirectURL    string            `json:"redirect_url"`
	EventSourceURL string            `json:"event_source_url"`
}

// Validate checks required fields before anything is persisted.
func (r *EventRequest) Validate() error {
	switch domain.EventType(r.EventType) {
	case domain.EventPageview:
	case domain.EventClick:
		if r.EventID == "" {
			return fmt.Errorf("event_id is required for click events")
		}
		if r.Provider == "" {
			return fmt.Errorf("provider is required for click events")
		}
	default:
		return fmt.Errorf("event_type must be %q or %q", domain.EventPageview, domain.EventClick)
	}
	if r.TrackID == "" {
		return fmt.Errorf("track_id is required")
	}
	return nil
}

// clientIP extracts the real client address: first entry of X-Forwarded-For,
// then X-Real-Ip, then the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// extractMetaCookies pulls the Meta browser and click identifiers out of the
// raw Cookie header. Absence of either is normal (ad blockers, no pixel yet)
// and yields nil rather than an empty string, so downstream payloads can
// omit the keys entirely.
func extractMetaCookies(cookieHeader string) (fbp, fbc *string) {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || value == "" {
			continue
		}
		switch name {
		case "_fbp":
			v := value
			fbp = &v
		case "_fbc":
			v := value
			fbc = &v
		}
	}
	return fbp, fbc
}
