package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/build-tv/internal/logger"
)

// ErrAlreadyRunning is returned when another process with the same executable is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// EnsureSingle fails when another process runs the current executable.
func EnsureSingle(ctx context.Context) error {
	name, err := currentExecutable()
	if err != nil {
		return err
	}

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if pid, found := findOther(processList, os.Getpid(), name); found {
		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, pid)
	}

	logger.DebugKV(ctx, "No other instance found", "executable", name)

	return nil
}

// findOther returns the pid of a process other than self running name.
func findOther(processList []ps.Process, self int, name string) (int, bool) {
	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if sameExecutable(process.Executable(), name) {
			return process.Pid(), true
		}
	}

	return 0, false
}

// currentExecutable returns the base name of the running binary.
func currentExecutable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}

	return filepath.Base(path), nil
}

// commLength is the length at which Linux truncates process names.
const commLength = 15

// sameExecutable compares a listed process name with an executable name,
// ignoring case on Windows and the Linux name truncation.
func sameExecutable(listed, name string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(listed, name)
	}

	if len(listed) == commLength && len(name) > commLength {
		return strings.HasPrefix(name, listed)
	}

	return listed == name
}
