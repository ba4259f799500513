package bytesize

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{
			name:  "bytes",
			input: "512B",
			want:  512,
		},
		{
			name:  "kilobytes",
			input: "100KB",
			want:  100 * 1024,
		},
		{
			name:  "megabytes",
			input: "512MB",
			want:  512 * 1024 * 1024,
		},
		{
			name:  "gigabytes",
			input: "2GB",
			want:  2 * 1024 * 1024 * 1024,
		},
		{
			name:  "terabytes",
			input: "1TB",
			want:  int64(1024) * 1024 * 1024 * 1024,
		},
		{
			name:  "decimal gigabytes",
			input: "1.5GB",
			want:  int64(1.5 * 1024 * 1024 * 1024),
		},
		{
			name:  "lowercase units",
			input: "256mb",
			want:  256 * 1024 * 1024,
		},
		{
			name:  "surrounding whitespace",
			input: "  64MB  ",
			want:  64 * 1024 * 1024,
		},
		{
			name:  "space before unit",
			input: "64 MB",
			want:  64 * 1024 * 1024,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing unit",
			input:   "512",
			wantErr: true,
		},
		{
			name:    "missing value",
			input:   "MB",
			wantErr: true,
		},
		{
			name:    "negative value",
			input:   "-1GB",
			wantErr: true,
		},
		{
			name:    "garbage value",
			input:   "abcMB",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
