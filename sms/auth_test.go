package sms

import (
	"testing"
	"time"
)

func TestAuthTimestamp(t *testing.T) {
	at := time.Date(2026, time.February, 3, 4, 5, 6, 0, time.Local)
	if got := authTimestamp(at); got != "0203040506" {
		t.Errorf("authTimestamp = %q, want 0203040506", got)
	}
}

func TestBuildConnect(t *testing.T) {
	c := &Client{Config: Config{Username: "900001", Password: "secret"}}
	at := time.Date(2026, time.August, 5, 12, 30, 45, 0, time.Local)
	p := c.buildConnect(at)
	if p.SourceAddr != "900001" {
		t.Errorf("SourceAddr = %q", p.SourceAddr)
	}
	if p.Version != 0x30 {
		t.Errorf("Version = %#x", p.Version)
	}
	if p.Timestamp != 805123045 {
		t.Errorf("Timestamp = %d, want 805123045", p.Timestamp)
	}
	if p.AuthenticatorSource != c.buildConnect(at).AuthenticatorSource {
		t.Error("digest is unstable for a fixed moment")
	}
}
