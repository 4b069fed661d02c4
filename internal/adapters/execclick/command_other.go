//go:build !windows

package execclick

import "os/exec"

func configureCommand(_ *exec.Cmd) {}
