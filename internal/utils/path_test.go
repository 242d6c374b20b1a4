package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "hello",
			expected: "hello",
		},
		{
			name:     "uppercase to lowercase",
			input:    "HELLO",
			expected: "hello",
		},
		{
			name:     "mixed case with spaces",
			input:    "Pager Crashes On Empty List",
			expected: "pager-crashes-on-empty-list",
		},
		{
			name:     "special characters removed",
			input:    "Hello! World?",
			expected: "hello-world",
		},
		{
			name:     "issue key preserved as slug",
			input:    "FELIX-123",
			expected: "felix-123",
		},
		{
			name:     "numbers preserved",
			input:    "Phase 1 Setup",
			expected: "phase-1-setup",
		},
		{
			name:     "underscores removed",
			input:    "hello_world",
			expected: "helloworld",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(present) {
		t.Errorf("FileExists(%q) = false, want true", present)
	}
	if FileExists(filepath.Join(dir, "absent.txt")) {
		t.Errorf("FileExists reported a missing file as present")
	}
}

func TestResolveBinaryPathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "tool")
	if got := ResolveBinaryPath(abs); got != abs {
		t.Errorf("ResolveBinaryPath(%q) = %q, want unchanged", abs, got)
	}
}

func TestResolveBinaryPathUnknownReturnsInput(t *testing.T) {
	name := "definitely-not-a-real-tool-name"
	if got := ResolveBinaryPath(name); got != name {
		t.Errorf("ResolveBinaryPath(%q) = %q, want input back", name, got)
	}
}
