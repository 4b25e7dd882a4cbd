package main

import (
	"sync"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/editor"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/rpc"
)

// rpcUI implements the editor collaborator interfaces by emitting events to
// the shim. Surface state is the shim's truth: every inbound command carries
// it, and UpdateState records it before the session acts. Between updates
// the sidecar adjusts its belief optimistically after its own surface
// operations.
type rpcUI struct {
	srv *rpc.Server

	mu      sync.Mutex
	visible bool
	focused bool

	installMu   sync.Mutex
	installDone func(ok bool)
}

func newRPCUI(srv *rpc.Server) *rpcUI {
	return &rpcUI{srv: srv}
}

// UpdateState records the shim-reported surface state.
func (u *rpcUI) UpdateState(st rpc.UIState) {
	u.mu.Lock()
	u.visible = st.SurfaceVisible
	u.focused = st.SurfaceFocused
	u.mu.Unlock()
}

func (u *rpcUI) setState(visible, focused bool) {
	u.mu.Lock()
	u.visible = visible
	u.focused = focused
	u.mu.Unlock()
}

func (u *rpcUI) OpenSurface(opts editor.SurfaceOptions) error {
	u.srv.EmitEvent("open_surface", map[string]any{
		"placement": opts.Placement,
		"focus":     opts.Focus,
		"width":     opts.Width,
		"height":    opts.Height,
	})
	u.setState(true, opts.Focus)
	return nil
}

func (u *rpcUI) CloseSurface() error {
	u.srv.EmitEvent("close_surface", nil)
	u.setState(false, false)
	return nil
}

func (u *rpcUI) FocusSurface() error {
	u.srv.EmitEvent("focus_surface", nil)
	u.mu.Lock()
	u.focused = true
	u.mu.Unlock()
	return nil
}

func (u *rpcUI) RestoreFocus() error {
	u.srv.EmitEvent("restore_focus", nil)
	u.mu.Lock()
	u.focused = false
	u.mu.Unlock()
	return nil
}

func (u *rpcUI) SurfaceVisible() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.visible
}

func (u *rpcUI) SurfaceFocused() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.focused
}

func (u *rpcUI) RenderMessage(lines []string) error {
	u.srv.EmitEvent("render_message", map[string]any{"lines": lines})
	return nil
}

func (u *rpcUI) AppendOutput(line string) error {
	u.srv.EmitEvent("append_output", map[string]any{"line": line})
	return nil
}

func (u *rpcUI) WriteTerminal(data []byte) error {
	// []byte marshals as base64; the shim decodes before chansend.
	u.srv.EmitEvent("terminal_output", map[string]any{"data": data})
	return nil
}

func (u *rpcUI) Reselect() error {
	u.srv.EmitEvent("reselect", nil)
	return nil
}

func (u *rpcUI) ExitVisual() error {
	u.srv.EmitEvent("exit_visual", nil)
	return nil
}

func (u *rpcUI) Notify(level editor.Level, msg string) {
	u.srv.EmitEvent("notify", map[string]any{"level": level, "message": msg})
}

// PromptInstall asks the shim to run the installer. The completion arrives
// later as an install_result command.
func (u *rpcUI) PromptInstall(done func(ok bool)) {
	u.installMu.Lock()
	u.installDone = done
	u.installMu.Unlock()
	u.srv.EmitEvent("prompt_install", nil)
}

// InstallResult resolves an outstanding install prompt.
func (u *rpcUI) InstallResult(ok bool) {
	u.installMu.Lock()
	done := u.installDone
	u.installDone = nil
	u.installMu.Unlock()
	if done != nil {
		done(ok)
	}
}
