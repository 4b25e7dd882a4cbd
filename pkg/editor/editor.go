// Package editor declares the interfaces the session core consumes from the
// host editor. The sidecar never talks to the editor directly; the real
// implementations live in the command layer and translate these calls into
// RPC events for the editor shim.
package editor

// Placement selects where the display surface appears.
type Placement string

const (
	// PlacementFloat is a centered floating window sized as a fraction of
	// the host viewport.
	PlacementFloat Placement = "float"
	// PlacementPanel is a fixed side panel sized as a fraction of the
	// viewport width.
	PlacementPanel Placement = "panel"
)

// SurfaceOptions describes how to create the display surface.
type SurfaceOptions struct {
	Placement Placement
	// Focus transfers input focus to the new surface. Background opens
	// (send-selection while the surface is hidden) leave it false.
	Focus bool
	// Fractions of the host viewport, interpreted per placement: floats use
	// both, panels use Width only.
	Width  float64
	Height float64
}

// UI is the display-surface collaborator. All methods are non-blocking; the
// editor applies them asynchronously.
type UI interface {
	// OpenSurface creates or reveals the surface.
	OpenSurface(opts SurfaceOptions) error
	// CloseSurface destroys the surface without touching the process.
	CloseSurface() error
	// FocusSurface moves input focus to the surface.
	FocusSurface() error
	// RestoreFocus returns input focus to the window that was active before
	// the surface took it.
	RestoreFocus() error

	// SurfaceVisible reports whether a surface is currently shown.
	SurfaceVisible() bool
	// SurfaceFocused reports whether the surface holds input focus.
	SurfaceFocused() bool

	// RenderMessage replaces the surface content with static text, used for
	// install instructions and failure notices.
	RenderMessage(lines []string) error
	// AppendOutput appends one line of buffered-capture output.
	AppendOutput(line string) error
	// WriteTerminal feeds raw process output to the surface's terminal.
	WriteTerminal(data []byte) error

	// Reselect restores the last visual selection (gv) so its marks can be
	// read outside visual mode. Read-only.
	Reselect() error
	// ExitVisual leaves visual mode.
	ExitVisual() error
}

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier is the notification sink collaborator.
type Notifier interface {
	Notify(level Level, msg string)
}

// Installer is the autoinstall prompt collaborator. PromptInstall returns
// immediately; done is invoked once the user completes or cancels the
// install.
type Installer interface {
	PromptInstall(done func(ok bool))
}
