package execclick

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Dependency struct {
	Name  string
	Path  string
	Found bool
}

// MissingDependencyError lists every dependency that was checked, so the
// shell can show what was found as well as what was not.
type MissingDependencyError struct {
	Dependencies []Dependency
}

func (e *MissingDependencyError) Error() string {
	missing := make([]string, 0, len(e.Dependencies))
	for _, dep := range e.Dependencies {
		if !dep.Found {
			missing = append(missing, fmt.Sprintf("%s (%s)", dep.Name, dep.Path))
		}
	}
	return "click dependency not found: " + strings.Join(missing, ", ")
}

func (e *MissingDependencyError) Missing() []Dependency {
	out := make([]Dependency, 0, len(e.Dependencies))
	for _, dep := range e.Dependencies {
		if !dep.Found {
			out = append(out, dep)
		}
	}
	return out
}

// CheckDependencies verifies that the click executable and the optional
// script exist. Bare executable names are resolved through PATH.
func CheckDependencies(cfg Config) ([]Dependency, error) {
	deps := []Dependency{executableDependency(cfg.Executable)}
	if cfg.Script != "" {
		deps = append(deps, Dependency{
			Name:  filepath.Base(cfg.Script),
			Path:  cfg.Script,
			Found: isRegularFile(cfg.Script),
		})
	}

	for _, dep := range deps {
		if !dep.Found {
			return deps, &MissingDependencyError{Dependencies: deps}
		}
	}
	return deps, nil
}

func executableDependency(path string) Dependency {
	dep := Dependency{Name: "click executable", Path: path}
	if strings.TrimSpace(path) == "" {
		return dep
	}
	if !strings.ContainsAny(path, `/\`) {
		if resolved, err := exec.LookPath(path); err == nil {
			dep.Path = resolved
			dep.Found = true
		}
		return dep
	}
	dep.Found = isRegularFile(path)
	return dep
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
