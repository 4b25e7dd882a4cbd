// Package rpc implements the sidecar's wire protocol: newline-delimited
// JSON commands on stdin, responses and events on stdout. The editor shim
// is the only client.
package rpc

import "encoding/json"

// Command represents a command received on stdin.
type Command struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response represents a response sent to stdout.
type Response struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Event represents an unsolicited message to the shim: surface operations,
// process output, notifications, install prompts.
type Event struct {
	Type  string `json:"type"` // always "event"
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Command type constants.
const (
	CommandConfigure     = "configure"
	CommandOpen          = "open"
	CommandClose         = "close"
	CommandToggle        = "toggle"
	CommandSend          = "send"
	CommandSendSelection = "send_selection"
	CommandStatus        = "status"
	CommandInstallResult = "install_result"
	CommandPing          = "ping"
)

// UIState carries editor-side facts that ride in on every surface-affecting
// command; the sidecar never queries the editor synchronously.
type UIState struct {
	SurfaceVisible bool   `json:"surfaceVisible"`
	SurfaceFocused bool   `json:"surfaceFocused"`
	BufferDir      string `json:"bufferDir,omitempty"`
	Cols           uint16 `json:"cols,omitempty"`
	Rows           uint16 `json:"rows,omitempty"`
}

// OpenRequest is the payload of open and toggle commands.
type OpenRequest struct {
	UIState
	Focus bool `json:"focus"`
}

// SendRequest is the payload of the send command.
type SendRequest struct {
	UIState
	Text   string `json:"text"`
	Submit bool   `json:"submit,omitempty"`
}

// Pos is a mark position: 1-based line, 0-based column. Line 0 means the
// mark is unset; a column of 2147483647 (v:maxcol) means end of line.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// SendSelectionRequest is the payload of the send_selection command.
type SendSelectionRequest struct {
	UIState
	Mode       string   `json:"mode"` // char, line, or block
	Start      Pos      `json:"start"`
	End        Pos      `json:"end"`
	BufferName string   `json:"bufferName,omitempty"`
	Lines      []string `json:"lines"`
	ExpandTabs bool     `json:"expandTabs,omitempty"`
	TabWidth   int      `json:"tabWidth,omitempty"`
	InVisual   bool     `json:"inVisual"`
	Submit     bool     `json:"submit,omitempty"`
}

// InstallResultRequest is the payload of the install_result command.
type InstallResultRequest struct {
	Success bool `json:"success"`
}

// StatusResponse is the data of a status response.
type StatusResponse struct {
	Indicator string `json:"indicator"`
}
