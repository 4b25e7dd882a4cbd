package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/editor"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/selection"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/spawn"
)

// A freshly spawned process may not consume its input stream yet; writes
// made too early are silently dropped by some terminal implementations. Two
// signals race to flip readiness: observed output, confirmed after a short
// debounce, and a fixed fallback deadline for processes that stay quiet.
const (
	probeDelay    = 120 * time.Millisecond
	fallbackDelay = 1200 * time.Millisecond
)

// ErrNoSession is returned by Send when no assistant process is running.
var ErrNoSession = errors.New("no active session")

// ErrEmptySelection is returned by SendSelection when nothing is selected.
var ErrEmptySelection = errors.New("empty selection")

// Send delivers text to the process input stream, or queues it until the
// process is ready. When submit is set a trailing newline is appended to
// emulate pressing enter.
func (s *Session) Send(text string, submit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(text, submit)
}

func (s *Session) sendLocked(text string, submit bool) error {
	if text == "" {
		s.notify(editor.LevelWarn, "Nothing to send")
		return errors.New("empty message")
	}
	if s.cfg.Capture == spawn.CaptureBuffered {
		s.notify(editor.LevelWarn, "Sending is not available in buffered output mode")
		return errors.New("no input stream in buffered output mode")
	}
	if s.proc == nil {
		s.notify(editor.LevelWarn, "No active codex session")
		return ErrNoSession
	}

	payload := text
	if submit {
		payload += "\n"
	}

	if s.ready {
		if err := s.proc.Write([]byte(payload)); err != nil {
			s.notify(editor.LevelError, fmt.Sprintf("Failed to send to codex: %v", err))
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	// Not ready yet: queue in order and make sure the fallback deadline is
	// armed, in case the process never produces early output.
	s.pending = append(s.pending, payload)
	s.sched.Schedule(TimerFallback, fallbackDelay, s.markReady)
	return nil
}

// markReady is the readiness transition. The first signal to call it wins;
// later calls are no-ops, and a process exit in between disarms it.
func (s *Session) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil || s.ready {
		return
	}
	s.ready = true

	queued := s.pending
	s.pending = nil
	for i, payload := range queued {
		if err := s.proc.Write([]byte(payload)); err != nil {
			// Re-queue the failing payload and everything after it, in the
			// original order. Readiness stays true: the caller may retry.
			s.pending = queued[i:]
			s.log.Error("queue flush failed", "sent", i, "requeued", len(s.pending), "error", err)
			s.notify(editor.LevelError, fmt.Sprintf("Failed to send queued message to codex: %v", err))
			return
		}
	}
	if len(queued) > 0 {
		s.log.Debug("flushed queued messages", "count", len(queued))
	}
}

// SelectionRequest is everything SendSelection needs from the editor.
type SelectionRequest struct {
	selection.Request

	// InVisual reports whether the editor is still in visual mode. A
	// re-invocation from a stored selection needs a reselect before the
	// marks are trustworthy.
	InVisual bool
	// Submit forwards to Send.
	Submit bool
	// BufferDir, Cols, Rows feed a background open when no surface or
	// process exists yet.
	BufferDir string
	Cols      uint16
	Rows      uint16
}

// SendSelection extracts the current selection, frames it with its file
// location, and sends it, opening the session in the background first when
// needed. Focus is restored and visual mode exited regardless of the send
// outcome.
func (s *Session) SendSelection(req SelectionRequest) error {
	if !req.InVisual {
		if err := s.ui.Reselect(); err != nil {
			// A failing reselect means there is no selection to recover.
			s.log.Debug("reselect failed", "error", err)
			return ErrEmptySelection
		}
	}

	sel, ok := selection.Extract(req.Request)
	if !ok {
		s.notify(editor.LevelWarn, "No selection")
		return ErrEmptySelection
	}

	defer func() {
		s.ui.RestoreFocus()
		s.ui.ExitVisual()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil || !s.ui.SurfaceVisible() {
		if err := s.openLocked(OpenOptions{
			Focus:     false,
			BufferDir: req.BufferDir,
			Cols:      req.Cols,
			Rows:      req.Rows,
		}); err != nil {
			return err
		}
	}

	return s.sendLocked(formatSelection(sel), req.Submit)
}

// formatSelection frames the extracted text with its file location. The
// payload always ends with a blank line so the assistant sees a complete
// block.
func formatSelection(sel *selection.Selection) string {
	name := filepath.Base(sel.BufferName)
	if sel.BufferName == "" {
		name = "[No Name]"
	}
	payload := fmt.Sprintf("File: %s:%d-%d\n\n%s", name, sel.StartLine, sel.EndLine, sel.Text)
	for !strings.HasSuffix(payload, "\n\n") {
		payload += "\n"
	}
	return payload
}
