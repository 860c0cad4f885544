package clock

import (
	"testing"
	"time"
)

func TestZoneClock_UnixHelpers(t *testing.T) {
	base := time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC)
	c, err := New("Asia/Kolkata", WithNow(func() time.Time { return base }))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := c.UnixNow(); got != base.Unix() {
		t.Fatalf("expected %d, got %d", base.Unix(), got)
	}
	if got := c.UnixFromNow(5 * time.Minute); got != base.Unix()+300 {
		t.Fatalf("expected now+300, got %d", got)
	}

	_, offset := c.Now().Zone()
	if offset != istOffset {
		t.Fatalf("expected +05:30 offset, got %d", offset)
	}
	if c.Now().Hour() != 12 {
		t.Fatalf("expected 12:00 local, got %v", c.Now())
	}
}

func TestZoneClock_IsExpiredIsStrict(t *testing.T) {
	base := time.Unix(1700000000, 0)
	c, _ := New("UTC", WithNow(func() time.Time { return base }))
	if c.Location().String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", c.Location())
	}

	if c.IsExpired(1700000000) {
		t.Fatal("timestamp equal to now must not be expired")
	}
	if !c.IsExpired(1699999999) {
		t.Fatal("timestamp before now must be expired")
	}
	if c.IsExpired(1700000001) {
		t.Fatal("future timestamp must not be expired")
	}
}

func TestNew_UnknownZone(t *testing.T) {
	if _, err := New("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
