package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1ilseok/briefit/internal/config"
)

func TestSourcesCommandListsFixedOrder(t *testing.T) {
	t.Setenv("MEDIUM_SESSION_ID", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sources"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"Playwright Releases", "Hacker News", "TLDR Tech", "OpenAI Blog", "Anthropic News", "Medium"}
	if len(lines) != len(want)+1 {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want)+1, out.String())
	}
	for i, label := range want {
		if !strings.HasPrefix(lines[i+1], label) {
			t.Errorf("line %d = %q, want prefix %q", i+1, lines[i+1], label)
		}
	}
	if !strings.HasSuffix(lines[len(lines)-1], "false") {
		t.Errorf("medium without session should be disabled: %q", lines[len(lines)-1])
	}
}

func TestBuildRunnerWithoutStorage(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.PostgresDSN = ""
	cfg.RedisAddr = ""
	cfg.OpenAIAPIKey = ""

	runner, store, err := buildRunner(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if store.DB != nil || store.Redis != nil {
		t.Fatalf("expected in-memory store")
	}
	if got := len(runner.Sources()); got != 6 {
		t.Fatalf("sources = %d, want 6", got)
	}
}
