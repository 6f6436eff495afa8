package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"10.0.0.1:8080", "10.0.0.1"},
		{"10.0.0.1", "10.0.0.1"},
		{"[::1]:8080", "::1"},
	}
	for _, tt := range tests {
		if got := ParseHostNoPort(tt.input); got != tt.want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("X-Real-IP", "203.0.113.10")

	if got := ClientIP(r, false); got != "192.0.2.1" {
		t.Errorf("ClientIP(trustProxy=false) = %q, want RemoteAddr host", got)
	}
	if got := ClientIP(r, true); got != "203.0.113.9" {
		t.Errorf("ClientIP(trustProxy=true) = %q, want first XFF entry", got)
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.0.2.7", " ", ""})

	if m.IsEmpty() {
		t.Fatal("matcher with rules should not be empty")
	}
	if !m.Allow("10.1.2.3") {
		t.Error("CIDR member should be allowed")
	}
	if !m.Allow("192.0.2.7") {
		t.Error("exact IP should be allowed")
	}
	if m.Allow("203.0.113.1") {
		t.Error("unlisted IP should be rejected")
	}
	if m.Allow("not-an-ip") {
		t.Error("garbage should be rejected")
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("matcher without rules should be empty")
	}
}
