package domain

import "testing"

func TestDocumentStatus_Terminal(t *testing.T) {
	cases := []struct {
		status DocumentStatus
		want   bool
	}{
		{StatusUploading, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("Terminal(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestBox_Valid(t *testing.T) {
	cases := []struct {
		name string
		box  Box
		want bool
	}{
		{"full page", Box{Left: 0, Top: 0, Right: 1, Bottom: 1}, true},
		{"interior", Box{Left: 0.1, Top: 0.2, Right: 0.8, Bottom: 0.9}, true},
		{"zero area", Box{Left: 0.5, Top: 0.5, Right: 0.5, Bottom: 0.5}, true},
		{"left past right", Box{Left: 0.9, Top: 0.1, Right: 0.1, Bottom: 0.9}, false},
		{"top past bottom", Box{Left: 0.1, Top: 0.9, Right: 0.9, Bottom: 0.1}, false},
		{"negative left", Box{Left: -0.1, Top: 0, Right: 0.5, Bottom: 0.5}, false},
		{"right out of range", Box{Left: 0.1, Top: 0.1, Right: 1.5, Bottom: 0.9}, false},
		{"bottom out of range", Box{Left: 0.1, Top: 0.1, Right: 0.9, Bottom: 1.2}, false},
	}
	for _, tc := range cases {
		if got := tc.box.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
