package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		// Single human-friendly units
		{name: "1 day", input: "1d", want: Day},
		{name: "2 days", input: "2d", want: 2 * Day},
		{name: "1 week", input: "1w", want: Week},
		{name: "1 month", input: "1M", want: Month},
		{name: "1 year", input: "1y", want: Year},

		// Compound human-friendly units
		{name: "2 weeks 3 days", input: "2w3d", want: 2*Week + 3*Day},
		{name: "1 year 6 months", input: "1y6M", want: Year + 6*Month},

		// Mixed with standard Go units
		{name: "1 day 12 hours", input: "1d12h", want: Day + 12*time.Hour},
		{name: "1 week 30 minutes", input: "1w30m", want: Week + 30*time.Minute},

		// Standard Go duration units (fallback)
		{name: "24 hours", input: "24h", want: 24 * time.Hour},
		{name: "30 minutes", input: "30m", want: 30 * time.Minute},
		{name: "90 seconds", input: "90s", want: 90 * time.Second},

		// Special cases
		{name: "zero", input: "0", want: 0},
		{name: "whitespace around", input: "  1d  ", want: Day},

		// Errors
		{name: "empty", input: "", wantErr: true},
		{name: "bare number", input: "15", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "unit only", input: "d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
