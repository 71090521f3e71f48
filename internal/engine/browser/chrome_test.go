package browser

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFindChrome_ExplicitPathWins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake chrome: %v", err)
	}

	if got := FindChrome(path); got != path {
		t.Errorf("FindChrome() = %q, want %q", got, path)
	}
}

func TestIsExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "exe")
	plain := filepath.Join(dir, "plain")
	os.WriteFile(exe, nil, 0755)
	os.WriteFile(plain, nil, 0644)

	tests := []struct {
		path string
		want bool
	}{
		{exe, true},
		{plain, false},
		{dir, false},
		{filepath.Join(dir, "missing"), false},
	}
	for _, tt := range tests {
		if got := isExecutable(tt.path); got != tt.want {
			t.Errorf("isExecutable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestChromeVersion_Empty(t *testing.T) {
	if got := ChromeVersion(""); got != "unknown" {
		t.Errorf("ChromeVersion(\"\") = %q", got)
	}
}

func TestAllocatorOptions_Proxy(t *testing.T) {
	l := &Launcher{opts: Options{Headless: true, UserAgent: "UA"}}
	base := len(l.allocatorOptions(""))
	if got := len(l.allocatorOptions("http://proxy:8080")); got != base+1 {
		t.Errorf("expected proxy to add one option, got %d vs %d", got, base)
	}
}
