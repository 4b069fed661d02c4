package execclick

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const helperFlag = "-test.run=TestHelperProcess"

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TestHelperProcess stands in for the external click executable.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == helperFlag {
			args = args[i+1:]
			break
		}
	}
	if out := os.Getenv("HELPER_OUT"); out != "" {
		_ = os.WriteFile(out, []byte(strings.Join(args, " ")), 0o600)
	}
	if os.Getenv("HELPER_MODE") == "fail" {
		_, _ = os.Stderr.WriteString("window not found")
		os.Exit(3)
	}
	os.Exit(0)
}

func helperRunner(t *testing.T, mode string) (*Runner, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "args.txt")
	runner, err := NewRunner(Config{
		Executable: os.Args[0],
		Script:     helperFlag,
		Env:        []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode, "HELPER_OUT=" + out},
	}, noopLogger{})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return runner, out
}

func TestClickPassesCoordinatesAndCount(t *testing.T) {
	runner, out := helperRunner(t, "ok")

	if err := runner.Click(100, 200, 2); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("helper did not record its arguments: %v", err)
	}
	if got := string(data); got != "100 200 2" {
		t.Fatalf("helper args = %q, want %q", got, "100 200 2")
	}
}

func TestClickReportsNonZeroExit(t *testing.T) {
	runner, _ := helperRunner(t, "fail")

	err := runner.Click(1, 2, 1)
	if err == nil {
		t.Fatalf("expected non-zero exit to be reported")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("Click() error = %v, want wrapped exit status 3", err)
	}
	if !strings.Contains(err.Error(), "window not found") {
		t.Fatalf("Click() error %q should include stderr", err)
	}
}

func TestClickReportsMissingExecutable(t *testing.T) {
	runner, err := NewRunner(Config{Executable: filepath.Join(t.TempDir(), "missing-clicker")}, noopLogger{})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if err := runner.Click(1, 1, 1); err == nil {
		t.Fatalf("expected error for a missing executable")
	}
}

func TestNewRunnerRequiresExecutable(t *testing.T) {
	if _, err := NewRunner(Config{}, noopLogger{}); err == nil {
		t.Fatalf("expected empty executable to be rejected")
	}
	if _, err := NewRunner(Config{Executable: "x"}, nil); err == nil {
		t.Fatalf("expected nil logger to be rejected")
	}
}

func TestCheckDependencies(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "click_backend.ahk")
	if err := os.WriteFile(script, []byte("; click"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deps, err := CheckDependencies(Config{Executable: os.Args[0], Script: script})
	if err != nil {
		t.Fatalf("CheckDependencies() error = %v", err)
	}
	if len(deps) != 2 || !deps[0].Found || !deps[1].Found {
		t.Fatalf("unexpected dependencies %+v", deps)
	}

	missingExe := filepath.Join(dir, "AutoHotkey64.exe")
	deps, err = CheckDependencies(Config{Executable: missingExe, Script: script})
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("CheckDependencies() error = %v, want *MissingDependencyError", err)
	}
	if got := missing.Missing(); len(got) != 1 || got[0].Path != missingExe {
		t.Fatalf("Missing() = %+v, want only the executable", got)
	}
	if !deps[1].Found {
		t.Fatalf("script should still be reported as found")
	}
	if !strings.Contains(err.Error(), missingExe) {
		t.Fatalf("error %q should name the missing path", err)
	}

	_, err = CheckDependencies(Config{Executable: os.Args[0], Script: filepath.Join(dir, "nope.ahk")})
	if !errors.As(err, &missing) {
		t.Fatalf("missing script error = %v, want *MissingDependencyError", err)
	}
}
