package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

const (
	envClickExe       = "MULTICLICKER_CLICK_EXE"
	envClickScript    = "MULTICLICKER_CLICK_SCRIPT"
	envProfileDir     = "MULTICLICKER_PROFILE_DIR"
	envLogLevel       = "MULTICLICKER_LOG_LEVEL"
	envHotkeyBackend  = "MULTICLICKER_HOTKEY_BACKEND"
	envStartKey       = "MULTICLICKER_START_KEY"
	envStopKey        = "MULTICLICKER_STOP_KEY"
	defaultStartKey   = "F6"
	defaultStopKey    = "F7"
	profileDirName    = "configs"
	appConfigDirName  = "multiclicker"
	fallbackConfigDir = ".multiclicker"
)

type config struct {
	clickExe      string
	clickScript   string
	profileDir    string
	hotkeyBackend string
	startKey      string
	stopKey       string
	logLevel      slog.Level
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

func newSlogLogger(level slog.Level, sink func(line string)) *slog.Logger {
	if !debugLogsEnabled() {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		}))
	}

	out := io.Writer(os.Stderr)
	if sink != nil {
		out = io.MultiWriter(os.Stderr, &lineSinkWriter{sink: sink})
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid %s %q (expected debug|info|warning|error)", envLogLevel, value)
	}
}

// appConfigDir is where UI settings and, by default, profiles live.
func appConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", fallbackConfigDir)
	}
	return filepath.Join(configDir, appConfigDirName)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// loadConfig reads the process configuration. The program takes no
// positional arguments; everything comes from the environment.
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (config, error) {
	flags := flag.NewFlagSet("multiclicker", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: multiclicker")
		fmt.Fprintln(stderr, "Configuration is read from the environment:")
		for _, name := range []string{envClickExe, envClickScript, envProfileDir, envLogLevel, envHotkeyBackend, envStartKey, envStopKey, "DEBUG"} {
			fmt.Fprintf(stderr, "  %s\n", name)
		}
	}
	if err := flags.Parse(args); err != nil {
		return config{}, err
	}
	if flags.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	exeDir := executableDir()
	cfg := config{
		clickExe:      envOrDefault(getenv, envClickExe, defaultClickExecutable(exeDir)),
		clickScript:   envOrDefault(getenv, envClickScript, defaultClickScript(exeDir)),
		profileDir:    envOrDefault(getenv, envProfileDir, filepath.Join(appConfigDir(), profileDirName)),
		hotkeyBackend: strings.TrimSpace(getenv(envHotkeyBackend)),
		startKey:      envOrDefault(getenv, envStartKey, defaultStartKey),
		stopKey:       envOrDefault(getenv, envStopKey, defaultStopKey),
	}

	level, err := parseLogLevel(getenv(envLogLevel))
	if err != nil {
		return config{}, err
	}
	cfg.logLevel = level

	backend, err := parseBackendChoice(cfg.hotkeyBackend)
	if err != nil {
		return config{}, err
	}
	cfg.hotkeyBackend = backend

	if _, err := parseHotkeyBindings(cfg.startKey, cfg.stopKey); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func envOrDefault(getenv func(string) string, name, fallback string) string {
	if value := strings.TrimSpace(getenv(name)); value != "" {
		return value
	}
	return fallback
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(args []string, stderr io.Writer) int {
	cfg, err := loadConfig(args, os.Getenv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := runUI(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
