//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/anya-manifestgen/internal/logger"
)

// ProcessLister enumerates running processes.
type ProcessLister func() ([]ps.Process, error)

// OtherInstances returns the PIDs of processes other than self running the given executable.
// Executable names are compared case-insensitively on Windows.
func OtherInstances(list ProcessLister, self int, executable string) ([]int, error) {
	processList, err := list()
	if err != nil {
		return nil, err
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if !sameExecutable(process.Executable(), executable) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// WarnOtherInstances logs a warning when another copy of the current executable is running.
// Failures to list processes are logged and otherwise ignored.
func WarnOtherInstances(ctx context.Context) {
	executable, err := os.Executable()
	if err != nil {
		logger.DebugKV(ctx, "Unable to resolve executable", "error", err)

		return
	}

	pids, err := OtherInstances(ps.Processes, os.Getpid(), filepath.Base(executable))
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)

		return
	}

	if len(pids) > 0 {
		logger.WarnKV(ctx, "Another generator process is running, outputs are replaced atomically",
			"pids", pids)
	}
}

// sameExecutable compares executable names the way the host filesystem does.
func sameExecutable(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}
