package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileOperations_DetectPartialDownload(t *testing.T) {
	fileOps := NewFileOperations()
	tempDir := t.TempDir()

	tests := []struct {
		name         string
		setup        func(string) string
		expectExists bool
		expectSize   int64
		expectError  bool
	}{
		{
			name: "no_partial_file",
			setup: func(dir string) string {
				return filepath.Join(dir, "missing.bin")
			},
		},
		{
			name: "partial_file_exists",
			setup: func(dir string) string {
				output := filepath.Join(dir, "video.mp4")
				if err := os.WriteFile(output+PartSuffix, make([]byte, 1024), 0644); err != nil {
					t.Fatal(err)
				}
				return output
			},
			expectExists: true,
			expectSize:   1024,
		},
		{
			name: "partial_path_is_directory",
			setup: func(dir string) string {
				output := filepath.Join(dir, "odd")
				if err := os.Mkdir(output+PartSuffix, 0755); err != nil {
					t.Fatal(err)
				}
				return output
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.setup(tempDir)
			exists, size, err := fileOps.DetectPartialDownload(output)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if exists != tt.expectExists {
				t.Errorf("Expected exists=%v, got %v", tt.expectExists, exists)
			}
			if size != tt.expectSize {
				t.Errorf("Expected size %d, got %d", tt.expectSize, size)
			}
		})
	}
}

func TestFileOperations_PartialFileLifecycle(t *testing.T) {
	fileOps := NewFileOperations()
	output := filepath.Join(t.TempDir(), "nested", "file.bin")

	file, err := fileOps.OpenPartialFile(output, false)
	if err != nil {
		t.Fatalf("OpenPartialFile failed: %v", err)
	}
	file.Write([]byte("hello "))
	file.Close()

	file, err = fileOps.OpenPartialFile(output, true)
	if err != nil {
		t.Fatalf("OpenPartialFile resume failed: %v", err)
	}
	file.Write([]byte("world"))
	file.Close()

	if err := fileOps.CompletePartialFile(output); err != nil {
		t.Fatalf("CompletePartialFile failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("Expected appended content, got %q", data)
	}
	if fileOps.FileExists(output + PartSuffix) {
		t.Error("Partial file should be gone after completion")
	}
}

func TestFileOperations_OpenPartialFileTruncates(t *testing.T) {
	fileOps := NewFileOperations()
	output := filepath.Join(t.TempDir(), "file.bin")

	if err := os.WriteFile(output+PartSuffix, []byte("stale data"), 0644); err != nil {
		t.Fatal(err)
	}

	file, err := fileOps.OpenPartialFile(output, false)
	if err != nil {
		t.Fatal(err)
	}
	file.Write([]byte("new"))
	file.Close()

	data, _ := os.ReadFile(output + PartSuffix)
	if string(data) != "new" {
		t.Errorf("Expected truncated content, got %q", data)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"movie.mp4", "movie.mp4"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"a:b*c?.txt", "a_b_c_.txt"},
		{"", "download"},
		{"  ..  ", "download"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
