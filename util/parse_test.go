package util

import "testing"

func TestParseSize(t *testing.T) {
	const fallback = int64(5 << 20)
	tests := []struct {
		input string
		want  int64
	}{
		{"5MB", 5 << 20},
		{"5mb", 5 << 20},
		{" 5 MB ", 5 << 20},
		{"512KB", 512 << 10},
		{"1GB", 1 << 30},
		{"2048", 2048},
		{"300B", 300},
		{"", fallback},
		{"lots", fallback},
		{"-1MB", fallback},
		{"1.5MB", fallback},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseSize(tc.input, fallback); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input  string
		prefix int
		want   string
	}{
		{"postgres://app:s3cret@db:5432/fileupload", 12, "postgres://a***"},
		{"file:test.db", 12, "***"},
		{"", 4, "***"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := MaskSecret(tc.input, tc.prefix); got != tc.want {
				t.Errorf("MaskSecret(%q, %d) = %q, want %q", tc.input, tc.prefix, got, tc.want)
			}
		})
	}
}
