package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/iksnae/llmcan/internal/agent"
	"github.com/iksnae/llmcan/internal/config"
	"github.com/iksnae/llmcan/internal/diag"
	"github.com/iksnae/llmcan/internal/history"
	"github.com/iksnae/llmcan/internal/llm"
	"github.com/iksnae/llmcan/internal/proxy"
	"github.com/iksnae/llmcan/internal/search"
)

const ipCheckTimeout = 15 * time.Second

// app holds the components shared by the commands
type app struct {
	cfg      *config.Config
	paths    internal.DataPaths
	session  *internal.SessionState
	llm      llm.Client
	tor      *proxy.TorService
	ip       *proxy.IPChecker
	executor *search.Executor
	history  *history.Store
	pipeline *agent.Pipeline
	logFile  io.Closer
}

// loadConfig reads the config file, the .env file and the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnvFile(cfg, cfg.EnvFile); err != nil {
		internal.LogWarn("Failed to read %s: %v", cfg.EnvFile, err)
	}
	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if hostFlag != "" {
		cfg.LLM.Host = hostFlag
	}
	if torFlag {
		cfg.Tor.Enabled = true
	}
	if verbose {
		cfg.Log.Level = internal.LogLevelDebug.String()
	}
	return cfg, cfg.Validate()
}

// newApp wires every component from the configuration
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	if cfg.Log.File != "" {
		f, err := internal.OpenLogFile(cfg.Log.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
	}

	a.paths, err = cfg.Paths()
	if err != nil {
		return nil, err
	}
	if err := a.paths.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	torInstalled := internal.ToolAvailable(cfg.Tor.Command)
	if cfg.Tor.Enabled && !torInstalled {
		internal.LogWarn("TOR routing requested but %s is not installed, searching directly", cfg.Tor.Command)
	}
	a.session = internal.NewSessionState(cfg.Tor.Enabled, torInstalled, cfg.LogLevel())
	internal.SetLogLevel(cfg.LogLevel())
	if !internal.ToolAvailable(cfg.Search.Command) {
		internal.LogWarn("%s is not installed, search disabled for this session", cfg.Search.Command)
		a.session.DisableSearch()
	}

	a.llm, err = llm.New(llm.Options{
		Backend: cfg.LLM.Backend,
		Host:    cfg.LLM.Host,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		APIKey:  cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, err
	}

	a.ip, err = proxy.NewIPChecker(cfg.Tor.IPEchoURL, cfg.Tor.SocksAddr, ipCheckTimeout)
	if err != nil {
		internal.LogWarn("Egress IP checks disabled: %v", err)
		a.ip = nil
	}

	runner := internal.ExecRunner{}
	a.tor = proxy.NewTorService(runner, a.ip, proxy.TorOptions{
		Unit:          cfg.Tor.Unit,
		UseSudo:       cfg.Tor.UseSudo,
		ActiveTimeout: cfg.Tor.ActiveTimeout,
		VerifyIP:      cfg.Tor.VerifyIP,
	})
	a.executor = search.NewExecutor(
		search.NewDDGRProvider(runner, search.DDGROptions{
			Command:      cfg.Search.Command,
			ProxyCommand: cfg.Tor.Command,
			Results:      cfg.Search.Results,
		}),
		a.tor,
		search.Options{
			MaxRetries:  cfg.Search.MaxRetries,
			Backoff:     cfg.Search.Backoff,
			Parallelism: cfg.Search.Parallelism,
			DumpDir:     cfg.Search.DumpDir,
		},
	)

	a.history = history.NewStore(a.paths.HistoryFile, cfg.History.MaxLength)
	a.pipeline = &agent.Pipeline{
		Preprocessor:    agent.NewPreprocessor(a.llm, cfg.Preprocess.MaxQueries),
		Searcher:        a.executor,
		Synthesizer:     agent.NewSynthesizer(a.llm),
		History:         a.history,
		Session:         a.session,
		PersistEachTurn: cfg.History.PersistEachTurn,
		ContextTurns:    cfg.History.ContextTurns,
	}
	if cfg.Report.Enabled && a.paths.ReportFile != "" {
		a.pipeline.Reports = agent.NewReportWriter(a.paths.ReportFile)
	}

	internal.LogDebug("llm %s at %s, model %s", cfg.LLM.Backend, a.llm.Host(), a.llm.Model())
	internal.LogDebug("history %s, tor %v (installed %v)", a.paths.HistoryFile, a.session.UseProxy(), torInstalled)
	return a, nil
}

func (a *app) diagnostics() *diag.Collector {
	return &diag.Collector{
		LLM:     a.llm,
		Session: a.session,
		Tor:     a.tor,
		IP:      a.ip,
	}
}

// Close releases the log file
func (a *app) Close() {
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
