package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDataPaths(t *testing.T) {
	dir := t.TempDir()
	absHistory := filepath.Join(dir, "elsewhere", "h.json")

	paths, err := ResolveDataPaths(filepath.Join(dir, "data"), "history.json", absHistory, filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("ResolveDataPaths() error = %v", err)
	}
	if want := filepath.Join(dir, "data", "history.json"); paths.HistoryFile != want {
		t.Errorf("HistoryFile = %v, want %v", paths.HistoryFile, want)
	}
	if paths.ReportFile != absHistory {
		t.Errorf("ReportFile = %v, want %v", paths.ReportFile, absHistory)
	}
	if !filepath.IsAbs(paths.EnvFile) {
		t.Errorf("EnvFile = %v, want absolute path", paths.EnvFile)
	}
}

func TestResolveDataPaths_Relative(t *testing.T) {
	paths, err := ResolveDataPaths("data", "cognitive_agent_history.json", "", "")
	if err != nil {
		t.Fatalf("ResolveDataPaths() error = %v", err)
	}
	if !filepath.IsAbs(paths.DataDir) {
		t.Errorf("DataDir = %v, want absolute path", paths.DataDir)
	}
	if paths.ReportFile != "" || paths.EnvFile != "" {
		t.Errorf("empty paths should stay empty, got report %q env %q", paths.ReportFile, paths.EnvFile)
	}
}

func TestDataPaths_EnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	paths, err := ResolveDataPaths(filepath.Join(dir, "nested", "data"), "h.json", "r.txt", "")
	if err != nil {
		t.Fatalf("ResolveDataPaths() error = %v", err)
	}
	if err := paths.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error = %v", err)
	}
	if err := os.WriteFile(paths.HistoryFile, []byte("[]"), 0644); err != nil {
		t.Errorf("history file not writable after EnsureDataDir: %v", err)
	}
}

func TestDetectTool(t *testing.T) {
	original := lookPath
	defer func() { lookPath = original }()
	lookPath = func(name string) (string, error) {
		if name == "ddgr" {
			return "/usr/bin/ddgr", nil
		}
		return "", errors.New("not found")
	}

	st := DetectTool("ddgr")
	if !st.Found || st.Path != "/usr/bin/ddgr" {
		t.Errorf("DetectTool(ddgr) = %+v, want found at /usr/bin/ddgr", st)
	}
	st = DetectTool("torsocks")
	if st.Found || st.Hint == "" {
		t.Errorf("DetectTool(torsocks) = %+v, want missing with a hint", st)
	}
	if ToolAvailable("torsocks") {
		t.Error("ToolAvailable(torsocks) = true, want false")
	}

	all := DetectTools()
	if len(all) != 3 {
		t.Fatalf("DetectTools() returned %d tools, want 3", len(all))
	}
	if all[0].Name != "ddgr" || all[1].Name != "torsocks" || all[2].Name != "systemctl" {
		t.Errorf("DetectTools() order = %v", all)
	}
}
