package internal

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// DataPaths holds the resolved locations of the files the agent writes
type DataPaths struct {
	DataDir     string // base directory for history and reports
	HistoryFile string // dialog history JSON
	ReportFile  string // plain-text turn reports
	EnvFile     string // .env file storing the last log level
}

// ResolveDataPaths makes every relative path absolute. History and report
// paths are relative to dataDir, dataDir and envFile to the working directory.
func ResolveDataPaths(dataDir, historyFile, reportFile, envFile string) (DataPaths, error) {
	absData, err := filepath.Abs(dataDir)
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	absEnv := ""
	if envFile != "" {
		absEnv, err = filepath.Abs(envFile)
		if err != nil {
			return DataPaths{}, fmt.Errorf("failed to resolve env file: %w", err)
		}
	}
	return DataPaths{
		DataDir:     absData,
		HistoryFile: underDir(absData, historyFile),
		ReportFile:  underDir(absData, reportFile),
		EnvFile:     absEnv,
	}, nil
}

func underDir(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// EnsureDataDir ensures the data directory exists
func (dp DataPaths) EnsureDataDir() error {
	return os.MkdirAll(dp.DataDir, 0755)
}

// ToolStatus records whether an external command is on PATH
type ToolStatus struct {
	Name  string
	Path  string
	Found bool
	Hint  string
}

var lookPath = exec.LookPath

// installHints tell the user how to obtain each external tool.
var installHints = map[string]string{
	"ddgr":      "install ddgr (e.g. `pip install ddgr` or your package manager)",
	"torsocks":  "install torsocks to route searches through TOR (e.g. `sudo dnf install torsocks`)",
	"systemctl": "TOR identity rotation needs systemd (`systemctl restart tor`)",
}

// DetectTool looks name up on PATH
func DetectTool(name string) ToolStatus {
	st := ToolStatus{Name: name, Hint: installHints[name]}
	if p, err := lookPath(name); err == nil {
		st.Path = p
		st.Found = true
	}
	return st
}

// ToolAvailable reports whether name is on PATH
func ToolAvailable(name string) bool {
	return DetectTool(name).Found
}

// DetectTools checks every external tool the agent shells out to
func DetectTools(names ...string) []ToolStatus {
	if len(names) == 0 {
		names = []string{"ddgr", "torsocks", "systemctl"}
	}
	out := make([]ToolStatus, 0, len(names))
	for _, n := range names {
		out = append(out, DetectTool(n))
	}
	return out
}
