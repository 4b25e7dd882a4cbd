// Package spawn runs the assistant CLI as a subprocess and streams its
// output back through callbacks. Two capture modes exist: terminal mode
// allocates a pty and forwards raw bytes for live rendering, buffered mode
// captures stdout/stderr line by line into a plain output surface.
package spawn

import (
	"errors"
	"os/exec"
)

// CaptureMode selects how process output is captured.
type CaptureMode string

const (
	// CaptureTerminal runs the process on a pty and forwards raw output.
	CaptureTerminal CaptureMode = "terminal"
	// CaptureBuffered captures stdout/stderr line by line. The process has
	// no writable input stream in this mode.
	CaptureBuffered CaptureMode = "buffered"
)

// Stream tags a buffered-capture line with its origin.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// ErrNoInput is returned by Write in buffered capture mode.
var ErrNoInput = errors.New("process has no input stream in buffered mode")

// ErrClosed is returned by Write after the process input stream is gone.
var ErrClosed = errors.New("process input stream closed")

// Options configures a spawn.
type Options struct {
	Argv []string
	Dir  string
	Mode CaptureMode

	// Terminal dimensions for the pty, terminal mode only. Zero values get
	// a sane default.
	Cols uint16
	Rows uint16

	// OnOutput receives raw output chunks in terminal mode.
	OnOutput func(data []byte)
	// OnLine receives tagged lines in buffered mode.
	OnLine func(stream Stream, line string)
	// OnExit is invoked exactly once with the process exit code, after all
	// output has been delivered.
	OnExit func(code int)
}

// Process is a handle to a running subprocess.
type Process interface {
	// ID identifies the process for logging.
	ID() string
	// Mode reports the capture mode the process was spawned with.
	Mode() CaptureMode
	// Write sends bytes to the process input stream.
	Write(p []byte) error
	// Resize adjusts the pty dimensions in terminal mode; a no-op otherwise.
	Resize(cols, rows uint16) error
	// Terminate asks the process to exit, escalating to a kill if it does
	// not comply.
	Terminate()
}

// Spawner is the process collaborator consumed by the session core.
type Spawner interface {
	// Available reports whether the named executable is on the system.
	Available(name string) bool
	// Spawn starts the process and wires its lifecycle callbacks.
	Spawn(opts Options) (Process, error)
}

// lookup is the executable-presence check used by ExecSpawner.
func lookup(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
