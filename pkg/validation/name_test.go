package validation

import (
	"strings"
	"testing"
)

func TestValidateSpawnName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "mydev"},
		{name: "with digits", input: "dev42"},
		{name: "inner hyphen", input: "my-dev"},
		{name: "single char", input: "x"},
		{name: "max length", input: strings.Repeat("a", MaxSpawnNameLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxSpawnNameLength+1), wantErr: true},
		{name: "uppercase", input: "MyDev", wantErr: true},
		{name: "leading hyphen", input: "-dev", wantErr: true},
		{name: "trailing hyphen", input: "dev-", wantErr: true},
		{name: "underscore", input: "my_dev", wantErr: true},
		{name: "dot", input: "my.dev", wantErr: true},
		{name: "space", input: "my dev", wantErr: true},
		{name: "reserved proxy", input: "proxy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpawnName(tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateSpawnName(%q) expected error", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateSpawnName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestValidateImageRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "name and tag", input: "ubuntu:22.04"},
		{name: "bare name", input: "ubuntu"},
		{name: "nested path", input: "rocker/rstudio"},
		{name: "nested path with tag", input: "rocker/rstudio:4.3"},
		{name: "registry host", input: "registry.example.com/team/base:1.2"},
		{name: "registry with port", input: "registry.example.com:5000/team/base:1.2"},
		{name: "empty", input: "", wantErr: true},
		{name: "uppercase name", input: "Ubuntu:22.04", wantErr: true},
		{name: "traversal", input: "../etc/passwd", wantErr: true},
		{name: "bad tag", input: "ubuntu:!!", wantErr: true},
		{name: "adjacent separators", input: "my__image", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageRef(tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateImageRef(%q) expected error", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateImageRef(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestSplitImageRef(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantTag  string
	}{
		{input: "ubuntu:22.04", wantName: "ubuntu", wantTag: "22.04"},
		{input: "ubuntu", wantName: "ubuntu", wantTag: "latest"},
		{input: "rocker/rstudio:4.3", wantName: "rocker/rstudio", wantTag: "4.3"},
		{input: "registry:5000/base", wantName: "registry:5000/base", wantTag: "latest"},
		{input: "registry:5000/base:1.2", wantName: "registry:5000/base", wantTag: "1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, tag := SplitImageRef(tt.input)
			if name != tt.wantName || tag != tt.wantTag {
				t.Errorf("SplitImageRef(%q) = (%q, %q), want (%q, %q)",
					tt.input, name, tag, tt.wantName, tt.wantTag)
			}
		})
	}
}
