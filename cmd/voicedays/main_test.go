package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "data:\n  dir: " + filepath.Join(dir, "data") + "\nevents:\n  provider: none\nlog_level: error\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCatalogFind(t *testing.T) {
	out, err := runCLI(t, "catalog", "find", "red", "lays")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !strings.Contains(out, "inst_02") || !strings.Contains(out, "(substitution)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFraudListShowsSeededCases(t *testing.T) {
	out, err := runCLI(t, "fraud", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "John") || !strings.Contains(out, "pending_review") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOrdersListEmpty(t *testing.T) {
	out, err := runCLI(t, "orders", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "No orders yet." {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFraudCallNeedsCredentials(t *testing.T) {
	if _, err := runCLI(t, "fraud", "call", "John", "--to", "+15550001111"); err == nil {
		t.Fatalf("expected missing from number or credentials error")
	}
	if _, err := runCLI(t, "fraud", "call", "Nobody"); err == nil || !strings.Contains(err.Error(), "no open case") {
		t.Fatalf("expected no open case, got %v", err)
	}
}
