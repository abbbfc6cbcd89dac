package logger

import "testing"

func TestRedactIP(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"203.0.113.7", "203.0.113.*"},
		{"10.0.0.1", "10.0.0.*"},
		{"2001:db8::1", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := RedactIP(tt.ip); got != tt.want {
				t.Errorf("RedactIP(%q) = %q, want %q", tt.ip, got, tt.want)
			}
		})
	}
}

func TestRedactIdentifier(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"fb.1.1700000000000.1234567890", "fb.1.170***"},
		{"short", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := RedactIdentifier(tt.id); got != tt.want {
				t.Errorf("RedactIdentifier(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestRedactPIIValueByKey(t *testing.T) {
	tests := []struct {
		key, val, want string
	}{
		{"ip", "9.9.9.9", "9.9.9.*"},
		{"client_ip", "9.9.9.9", "9.9.9.*"},
		{"fbp", "fb.1.1700000000000.99", "fb.1.170***"},
		{"provider", "spotify", "spotify"},
		{"track_id", "say-yes", "say-yes"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := redactPIIValue(tt.key, tt.val); got != tt.want {
				t.Errorf("redactPIIValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
			}
		})
	}
}
