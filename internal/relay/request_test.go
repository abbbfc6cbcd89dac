package relay

import (
	"net/http/httptest"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     EventRequest
		wantErr bool
	}{
		{
			name: "valid pageview",
			req:  EventRequest{EventType: "pageview", TrackID: "say-yes", VisitID: "v1"},
		},
		{
			name: "valid click",
			req:  EventRequest{EventType: "click", TrackID: "say-yes", EventID: "e1", Provider: "spotify"},
		},
		{
			name:    "unknown event type",
			req:     EventRequest{EventType: "hover", TrackID: "say-yes"},
			wantErr: true,
		},
		{
			name:    "missing event type",
			req:     EventRequest{TrackID: "say-yes"},
			wantErr: true,
		},
		{
			name:    "pageview without track",
			req:     EventRequest{EventType: "pageview"},
			wantErr: true,
		},
		{
			name:    "click without event id",
			req:     EventRequest{EventType: "click", TrackID: "say-yes", Provider: "spotify"},
			wantErr: true,
		},
		{
			name:    "click without provider",
			req:     EventRequest{EventType: "click", TrackID: "say-yes", EventID: "e1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"single forwarded", "9.9.9.9", "", "10.0.0.1:1234", "9.9.9.9"},
		{"proxy chain", "9.9.9.9, 172.16.0.1, 172.16.0.2", "", "10.0.0.1:1234", "9.9.9.9"},
		{"chain with spaces", " 9.9.9.9 , 172.16.0.1", "", "10.0.0.1:1234", "9.9.9.9"},
		{"real-ip fallback", "", "8.8.8.8", "10.0.0.1:1234", "8.8.8.8"},
		{"remote addr fallback", "", "", "10.0.0.1:1234", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/event", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-Ip", tt.xri)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMetaCookies(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantFBP string
		wantFBC string
	}{
		{
			name:    "both present",
			header:  "_fbp=fb.1.1700.42; _fbc=fb.1.1700.IwAR0; other=x",
			wantFBP: "fb.1.1700.42",
			wantFBC: "fb.1.1700.IwAR0",
		},
		{
			name:    "fbp only",
			header:  "session=abc; _fbp=fb.1.1700.42",
			wantFBP: "fb.1.1700.42",
		},
		{
			name:   "neither",
			header: "session=abc; theme=dark",
		},
		{
			name:   "empty header",
			header: "",
		},
		{
			name:   "empty value ignored",
			header: "_fbp=; _fbc=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fbp, fbc := extractMetaCookies(tt.header)

			if tt.wantFBP == "" && fbp != nil {
				t.Errorf("fbp = %q, want nil", *fbp)
			}
			if tt.wantFBP != "" && (fbp == nil || *fbp != tt.wantFBP) {
				t.Errorf("fbp = %v, want %q", fbp, tt.wantFBP)
			}
			if tt.wantFBC == "" && fbc != nil {
				t.Errorf("fbc = %q, want nil", *fbc)
			}
			if tt.wantFBC != "" && (fbc == nil || *fbc != tt.wantFBC) {
				t.Errorf("fbc = %v, want %q", fbc, tt.wantFBC)
			}
		})
	}
}
