// Package session owns the lifetime-bound pairing of one assistant
// subprocess and its display surface: the lifecycle state machine, the send
// pipeline, and the readiness protocol that decides when writes to the
// process input stream stop being dropped.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/config"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/editor"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/spawn"
)

const statusIndicator = "[codex]"

// Session pairs at most one assistant process with at most one display
// surface. All collaborators are injected; there is no package-level state.
type Session struct {
	mu sync.Mutex

	cfg       *config.Config
	ui        editor.UI
	notifier  editor.Notifier
	installer editor.Installer
	spawner   spawn.Spawner
	sched     *Scheduler
	log       *slog.Logger

	proc       spawn.Process
	ready      bool
	pending    []string
	installing bool
}

// Deps are the collaborators a session needs. Clock and Logger may be nil.
type Deps struct {
	UI        editor.UI
	Notifier  editor.Notifier
	Installer editor.Installer
	Spawner   spawn.Spawner
	Clock     Clock
	Logger    *slog.Logger
}

// New creates a session. The configuration may be replaced later via
// SetConfig, before any process is started.
func New(cfg *config.Config, deps Deps) *Session {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:       cfg,
		ui:        deps.UI,
		notifier:  deps.Notifier,
		installer: deps.Installer,
		spawner:   deps.Spawner,
		sched:     NewScheduler(deps.Clock),
		log:       log,
	}
}

// SetConfig replaces the configuration. Rejected while a process is running.
func (s *Session) SetConfig(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil {
		return fmt.Errorf("cannot reconfigure while the assistant is running")
	}
	s.cfg = cfg
	return nil
}

// OpenOptions carries editor-side facts an open needs.
type OpenOptions struct {
	// Focus moves input focus to the surface once it exists.
	Focus bool
	// BufferDir is the active buffer's directory, used when the working
	// directory policy asks for it. Empty for unnamed buffers.
	BufferDir string
	// Surface dimensions in cells, for the pty in terminal capture mode.
	Cols uint16
	Rows uint16
}

// Open shows the surface and makes sure a process is running behind it.
// Re-opening while the surface is visible and focused is a no-op; re-opening
// while the process runs with a hidden surface re-creates only the surface.
func (s *Session) Open(opts OpenOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(opts)
}

func (s *Session) openLocked(opts OpenOptions) error {
	if s.proc != nil {
		if s.ui.SurfaceVisible() {
			if opts.Focus && !s.ui.SurfaceFocused() {
				return s.ui.FocusSurface()
			}
			return nil
		}
		// Process still running, surface gone: bring the surface back and
		// reuse the process.
		s.log.Debug("reattaching surface to running process", "id", s.proc.ID())
		return s.ui.OpenSurface(s.surfaceOptions(opts.Focus))
	}

	if !s.ui.SurfaceVisible() {
		if err := s.ui.OpenSurface(s.surfaceOptions(opts.Focus)); err != nil {
			return err
		}
	}

	name := s.cfg.Cmd.Name()
	if !s.spawner.Available(name) {
		return s.resolveMissing(name, opts)
	}

	return s.startLocked(opts)
}

// resolveMissing handles an absent executable: suspend on the install
// prompt when autoinstall is on, otherwise render instructions and stop.
func (s *Session) resolveMissing(name string, opts OpenOptions) error {
	if s.cfg.Autoinstall && s.installer != nil {
		if s.installing {
			return nil
		}
		s.installing = true
		s.log.Info("assistant executable missing, prompting install", "cmd", name)
		s.installer.PromptInstall(func(ok bool) {
			s.finishInstall(ok, name, opts)
		})
		return nil
	}

	s.ui.RenderMessage(installInstructions(name))
	return nil
}

func (s *Session) finishInstall(ok bool, name string, opts OpenOptions) {
	s.mu.Lock()
	s.installing = false
	if !ok {
		s.log.Warn("assistant install declined or failed", "cmd", name)
		s.ui.RenderMessage(installFailed(name))
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Retry the suspended open now that the executable should exist.
	if err := s.Open(opts); err != nil {
		s.log.Error("open after install failed", "error", err)
	}
}

// startLocked resolves the working directory, builds the argument vector,
// and spawns the process with lifecycle callbacks wired back into the
// session.
func (s *Session) startLocked(opts OpenOptions) error {
	s.ready = false
	s.pending = nil

	dir := s.resolveDir(opts.BufferDir)
	argv := spawn.BuildArgs(s.cfg.Cmd.Argv(), s.cfg.Model)

	spawnOpts := spawn.Options{
		Argv:   argv,
		Dir:    dir,
		Mode:   s.cfg.Capture,
		Cols:   opts.Cols,
		Rows:   opts.Rows,
		OnExit: s.handleExit,
	}
	switch s.cfg.Capture {
	case spawn.CaptureBuffered:
		spawnOpts.OnLine = s.handleLine
	default:
		spawnOpts.OnOutput = s.handleOutput
	}

	proc, err := s.spawner.Spawn(spawnOpts)
	if err != nil {
		s.notify(editor.LevelError, fmt.Sprintf("Failed to start %s: %v", argv[0], err))
		return err
	}
	s.proc = proc
	s.log.Info("assistant started", "id", proc.ID(), "argv", argv, "dir", dir, "capture", s.cfg.Capture)
	return nil
}

// resolveDir applies the working directory policy: the active buffer's
// directory when configured and usable, the sidecar's own cwd otherwise.
func (s *Session) resolveDir(bufferDir string) string {
	if s.cfg.UseBufferDir && bufferDir != "" {
		if info, err := os.Stat(bufferDir); err == nil && info.IsDir() {
			return bufferDir
		}
		s.log.Debug("buffer directory unusable, falling back to cwd", "dir", bufferDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (s *Session) surfaceOptions(focus bool) editor.SurfaceOptions {
	return editor.SurfaceOptions{
		Placement: s.cfg.Placement,
		Focus:     focus,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
	}
}

// Close destroys the surface without terminating the process; the process
// keeps running detached, which is what the statusline indicator reports.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ui.SurfaceVisible() {
		return nil
	}
	return s.ui.CloseSurface()
}

// Toggle closes the surface if it is visible, otherwise opens with focus.
func (s *Session) Toggle(opts OpenOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ui.SurfaceVisible() {
		return s.ui.CloseSurface()
	}
	opts.Focus = true
	return s.openLocked(opts)
}

// Status returns a short indicator when the process runs without a visible
// surface, and "" otherwise.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil && !s.ui.SurfaceVisible() {
		return statusIndicator
	}
	return ""
}

// Running reports whether an assistant process is alive.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Shutdown terminates the process, if any. Used when the sidecar itself
// exits; a plain surface close never reaches here.
func (s *Session) Shutdown() {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc != nil {
		proc.Terminate()
	}
}

// handleOutput forwards terminal-mode output to the surface and treats it
// as evidence of readiness, debounced to coalesce bursts.
func (s *Session) handleOutput(data []byte) {
	s.ui.WriteTerminal(data)

	s.mu.Lock()
	skip := s.proc == nil || s.ready
	s.mu.Unlock()
	if skip {
		return
	}
	s.sched.Schedule(TimerProbe, probeDelay, s.markReady)
}

// handleLine renders buffered-mode output, tagging stderr lines.
func (s *Session) handleLine(stream spawn.Stream, line string) {
	if stream == spawn.StreamStderr {
		line = "[stderr] " + line
	}
	s.ui.AppendOutput(line)
}

// handleExit clears the process handle and resets all send-related state.
// Queued payloads are dropped; there is no delivery guarantee across a
// process restart.
func (s *Session) handleExit(code int) {
	s.mu.Lock()
	buffered := s.cfg.Capture == spawn.CaptureBuffered
	dropped := len(s.pending)
	s.proc = nil
	s.ready = false
	s.pending = nil
	s.mu.Unlock()

	if dropped > 0 {
		s.log.Warn("dropping queued messages on process exit", "count", dropped)
	}
	s.log.Info("assistant exited", "code", code)

	if buffered {
		s.ui.AppendOutput(fmt.Sprintf("[process exited with code %d]", code))
	}
}

func (s *Session) notify(level editor.Level, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(level, msg)
	}
}

func installInstructions(name string) []string {
	return []string{
		fmt.Sprintf("The %q executable was not found on this system.", name),
		"",
		"Install it with:",
		"",
		"    npm install -g @openai/codex",
		"",
		"and run :CodexToggle again.",
	}
}

func installFailed(name string) []string {
	return []string{
		fmt.Sprintf("Installation of %q did not complete.", name),
		"",
		"Install it manually with:",
		"",
		"    npm install -g @openai/codex",
	}
}
