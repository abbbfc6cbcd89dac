package logger

import "strings"

// redactPIIValue masks visitor-identifying values before they hit the log
// stream. Client IPs keep their /24 for debugging; Meta browser/click
// identifiers (_fbp/_fbc) keep only a short prefix.
func redactPIIValue(key, val string) string {
	k := strings.ToLower(key)
	switch {
	case k == "ip" || strings.HasSuffix(k, "_ip") || strings.Contains(k, "ip_address"):
		return RedactIP(val)
	case k == "fbp" || k == "fbc":
		return RedactIdentifier(val)
	}
	return val
}

// RedactIP masks the last octet of an IPv4 address for safe logging.
// "203.0.113.7" → "203.0.113.*". Non-IPv4 values are fully masked.
func RedactIP(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return "***"
	}
	return strings.Join(parts[:3], ".") + ".*"
}

// RedactIdentifier keeps the first 8 characters of an opaque tracking
// identifier and masks the rest: "fb.1.1700000000000.1234567890" → "fb.1.170***".
func RedactIdentifier(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "***"
}
