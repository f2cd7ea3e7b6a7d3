package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_CourseAndChunk(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	if err := os.MkdirAll(filepath.Join(data, "cours"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, "cours", "intro.txt"), []byte("Bonjour"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--data-dir", data,
		"--output-dir", filepath.Join(root, "output"),
		"--clean-dir", filepath.Join(root, "clean"),
		"cours", "chunk",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", code, stdout.String(), stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "2 succeeded, 0 failed, 0 skipped") {
		t.Errorf("summary missing:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "output", "cours", "chunk", "intro_chunks.json")); err != nil {
		t.Error(err)
	}
}

func TestRun_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown step", []string{"publish"}, 2},
		{"unknown flag", []string{"--nope"}, 2},
		{"bad log level", []string{"--log-level", "loud"}, 2},
		{"help", []string{"--help"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.code, stderr.String())
			}
			if !strings.Contains(stdout.String()+stderr.String(), "usage: syllabest") {
				t.Error("usage not printed")
			}
		})
	}
}
