package duration

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"1d", 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"1mo", 30 * 24 * time.Hour, false},
		{"2hours", 2 * time.Hour, false},
		{" 5m ", 5 * time.Minute, false},
		{"1W", 7 * 24 * time.Hour, false},
		{"invalid", 0, true},
		{"10", 0, true},
		{"3fortnights", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDuration(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSince(t *testing.T) {
	now := time.Date(2016, 5, 20, 0, 0, 0, 0, time.UTC)

	got, err := Since("2w", now)
	if err != nil {
		t.Fatalf("Since() error: %v", err)
	}
	if want := time.Date(2016, 5, 6, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Since() = %v, want %v", got, want)
	}

	if _, err := Since("soon", now); err == nil {
		t.Error("Since() expected error for invalid input")
	}
}
