package instance

import (
	"runtime"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess is a static ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// TestFindOther skips the current process and unrelated binaries.
func TestFindOther(t *testing.T) {
	t.Parallel()

	processList := []ps.Process{
		fakeProcess{pid: 1, executable: "init"},
		fakeProcess{pid: 42, executable: "build-tv-daemon"},
		fakeProcess{pid: 77, executable: "build-tv-ctl"},
	}

	_, found := findOther(processList, 42, "build-tv-daemon")
	require.False(t, found)

	processList = append(processList, fakeProcess{pid: 99, executable: "build-tv-daemon"})

	pid, found := findOther(processList, 42, "build-tv-daemon")
	require.True(t, found)
	require.Equal(t, 99, pid)
}

// TestSameExecutable matches names truncated by the kernel.
func TestSameExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, sameExecutable("build-tv-daemon", "build-tv-daemon"))
	require.False(t, sameExecutable("build-tv", "build-tv-daemon"))

	if runtime.GOOS == "windows" {
		t.Skip("process names are not truncated on Windows")
	}

	require.True(t, sameExecutable("build-tv-daemon", "build-tv-daemon-arm64"))
}
