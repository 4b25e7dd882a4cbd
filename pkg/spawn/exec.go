package spawn

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"golang.org/x/term"
)

const (
	defaultCols = 80
	defaultRows = 24

	// Scanner buffer for buffered capture; agent output lines can be long.
	scannerBufSize = 1024 * 1024

	defaultGracefulTimeout = 5 * time.Second
)

// ExecSpawner runs processes with os/exec, using a pty for terminal capture.
type ExecSpawner struct {
	// GracefulTimeout is how long Terminate waits between interrupt and
	// kill.
	GracefulTimeout time.Duration
}

// NewExecSpawner returns a spawner with default settings.
func NewExecSpawner() *ExecSpawner {
	return &ExecSpawner{GracefulTimeout: defaultGracefulTimeout}
}

// Available reports whether the named executable is in PATH.
func (s *ExecSpawner) Available(name string) bool {
	return lookup(name)
}

// Spawn starts the process described by opts.
func (s *ExecSpawner) Spawn(opts Options) (Process, error) {
	if len(opts.Argv) == 0 {
		return nil, fmt.Errorf("empty argument vector")
	}

	switch opts.Mode {
	case CaptureTerminal, "":
		return s.spawnTerminal(opts)
	case CaptureBuffered:
		return s.spawnBuffered(opts)
	default:
		return nil, fmt.Errorf("unknown capture mode: %s", opts.Mode)
	}
}

type execProcess struct {
	id       string
	mode     CaptureMode
	cmd      *exec.Cmd
	graceful time.Duration

	mu     sync.Mutex
	ptm    *os.File // terminal mode only
	closed bool
}

func (p *execProcess) ID() string { return p.id }

func (p *execProcess) Mode() CaptureMode { return p.mode }

func (p *execProcess) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == CaptureBuffered {
		return ErrNoInput
	}
	if p.closed {
		return ErrClosed
	}
	if _, err := p.ptm.Write(b); err != nil {
		return fmt.Errorf("write to process: %w", err)
	}
	return nil
}

func (p *execProcess) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == CaptureBuffered || p.closed {
		return nil
	}
	return pty.Setsize(p.ptm, &pty.Winsize{Rows: rows, Cols: cols})
}

func (p *execProcess) Terminate() {
	p.mu.Lock()
	proc := p.cmd.Process
	p.mu.Unlock()
	if proc == nil {
		return
	}

	proc.Signal(os.Interrupt)
	go func() {
		time.Sleep(p.graceful)
		proc.Kill()
	}()
}

// markClosed flips the closed flag so later writes fail cleanly.
func (p *execProcess) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (s *ExecSpawner) spawnTerminal(opts Options) (Process, error) {
	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = defaultCols
	}
	if rows == 0 {
		rows = defaultRows
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Argv[0], err)
	}

	// Raw line discipline on the master side so child output passes through
	// without translation (e.g., ICRNL converting \r to \n).
	if _, err := term.MakeRaw(int(ptm.Fd())); err != nil {
		slog.Warn("pty raw mode failed", "error", err)
	}

	p := &execProcess{
		id:       uuid.NewString(),
		mode:     CaptureTerminal,
		cmd:      cmd,
		ptm:      ptm,
		graceful: s.GracefulTimeout,
	}

	go p.pumpTerminal(opts.OnOutput, opts.OnExit)

	return p, nil
}

// pumpTerminal forwards pty output until EOF, then reaps the process.
func (p *execProcess) pumpTerminal(onOutput func([]byte), onExit func(int)) {
	buf := make([]byte, 4096)
	for {
		n, err := p.ptm.Read(buf)
		if n > 0 && onOutput != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onOutput(chunk)
		}
		if err != nil {
			// pty read returns EIO when the child side closes; both that
			// and EOF mean the process is done writing.
			break
		}
	}

	p.markClosed()
	p.ptm.Close()

	code := waitCode(p.cmd)
	slog.Debug("process exited", "id", p.id, "code", code)
	if onExit != nil {
		onExit(code)
	}
}

func (s *ExecSpawner) spawnBuffered(opts Options) (Process, error) {
	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Argv[0], err)
	}

	p := &execProcess{
		id:       uuid.NewString(),
		mode:     CaptureBuffered,
		cmd:      cmd,
		closed:   true, // no input stream in this mode
		graceful: s.GracefulTimeout,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go p.scanLines(&wg, stdout, StreamStdout, opts.OnLine)
	go p.scanLines(&wg, stderr, StreamStderr, opts.OnLine)

	go func() {
		// Drain both pipes before Wait closes them.
		wg.Wait()
		code := waitCode(p.cmd)
		slog.Debug("process exited", "id", p.id, "code", code)
		if opts.OnExit != nil {
			opts.OnExit(code)
		}
	}()

	return p, nil
}

func (p *execProcess) scanLines(wg *sync.WaitGroup, r io.Reader, stream Stream, onLine func(Stream, string)) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufSize), scannerBufSize)
	for scanner.Scan() {
		if onLine != nil {
			onLine(stream, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("output scanner error", "id", p.id, "stream", stream, "error", err)
	}
}

func waitCode(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
