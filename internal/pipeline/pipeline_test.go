package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 0, time.UTC)
	got := buildRunOutDir("out", "/videos/My Cool.Video.mp4", now)

	dir, base := filepath.Split(got)
	if filepath.Clean(dir) != "out" {
		t.Fatalf("dir = %q", dir)
	}
	const prefix = "my-cool-video-20260212-103045Z-"
	if !strings.HasPrefix(base, prefix) {
		t.Fatalf("base = %q, want prefix %q", base, prefix)
	}
	if len(base) != len(prefix)+6 {
		t.Fatalf("base = %q, want 6-char suffix", base)
	}
}

func TestBuildRunOutDirEmptyName(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 0, time.UTC)
	got := buildRunOutDir("out", "/videos/___.mp4", now)
	if !strings.HasPrefix(filepath.Base(got), "input-") {
		t.Fatalf("got %q, want fallback name", got)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	cases := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range cases {
		if got := normalizePathSegment(in); got != want {
			t.Errorf("normalizePathSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCacheDirFor(t *testing.T) {
	a := CacheDirFor("", "/videos/a.mp4")
	if a != CacheDirFor("", "/videos/a.mp4") {
		t.Fatalf("cache dir not deterministic")
	}
	if !strings.HasPrefix(a, filepath.Join(".cache", "runs")+string(filepath.Separator)) {
		t.Fatalf("unexpected default base: %q", a)
	}
	if b := CacheDirFor("", "/videos/b.mp4"); b == a {
		t.Fatalf("distinct inputs share a cache dir: %q", a)
	}
	if custom := CacheDirFor("/tmp/cache", "/videos/a.mp4"); !strings.HasPrefix(custom, filepath.Join("/tmp/cache", "runs")) {
		t.Fatalf("custom base ignored: %q", custom)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mp4")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	analysis := filepath.Join(dir, "analysis")
	if err := os.Mkdir(analysis, 0o755); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Input: input, AnalysisDir: analysis}, false},
		{"empty input", Config{AnalysisDir: analysis}, true},
		{"missing input", Config{Input: filepath.Join(dir, "nope.mp4"), AnalysisDir: analysis}, true},
		{"empty analysis dir", Config{Input: input}, true},
		{"missing analysis dir", Config{Input: input, AnalysisDir: filepath.Join(dir, "nope")}, true},
		// App config parsing happens once, in Run, not here.
		{"config path not checked", Config{Input: input, AnalysisDir: analysis, ConfigPath: filepath.Join(dir, "nope.yaml")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
