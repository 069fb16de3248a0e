package utils

import "testing"

func TestUUIDFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://app.soundcharts.com/app/song/7d5a2b1c-1111-4222-8333-944455556666/overview", "7d5a2b1c-1111-4222-8333-944455556666"},
		{"https://app.soundcharts.com/app/playlist/7D5A2B1C-1111-4222-8333-944455556666/tracklisting?tab=1", "7d5a2b1c-1111-4222-8333-944455556666"},
		{"https://app.soundcharts.com/app/song/abc-def", "abc-def"},
		{"https://example.com/nothing/here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UUIDFromURL(tt.raw); got != tt.want {
			t.Errorf("UUIDFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewRunIDUnique(t *testing.T) {
	if NewRunID() == NewRunID() {
		t.Error("run ids should differ")
	}
}
