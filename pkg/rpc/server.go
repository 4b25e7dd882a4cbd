package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Server handles RPC communication over a pair of streams, stdin/stdout in
// production.
type Server struct {
	mu sync.Mutex

	in      io.Reader
	writeMu sync.Mutex
	out     *bufio.Writer

	// Callbacks for handling commands.
	onConfigure     func(data json.RawMessage) (any, error)
	onOpen          func(req OpenRequest) error
	onClose         func() error
	onToggle        func(req OpenRequest) error
	onSend          func(req SendRequest) error
	onSendSelection func(req SendSelectionRequest) error
	onStatus        func() string
	onInstallResult func(success bool)
}

// NewServer creates an RPC server reading commands from r and writing
// responses and events to w.
func NewServer(r io.Reader, w io.Writer) *Server {
	return &Server{
		in:  r,
		out: bufio.NewWriter(w),
	}
}

// SetConfigureHandler sets the handler for configure commands.
func (s *Server) SetConfigureHandler(handler func(data json.RawMessage) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfigure = handler
}

// SetOpenHandler sets the handler for open commands.
func (s *Server) SetOpenHandler(handler func(req OpenRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = handler
}

// SetCloseHandler sets the handler for close commands.
func (s *Server) SetCloseHandler(handler func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = handler
}

// SetToggleHandler sets the handler for toggle commands.
func (s *Server) SetToggleHandler(handler func(req OpenRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onToggle = handler
}

// SetSendHandler sets the handler for send commands.
func (s *Server) SetSendHandler(handler func(req SendRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSend = handler
}

// SetSendSelectionHandler sets the handler for send_selection commands.
func (s *Server) SetSendSelectionHandler(handler func(req SendSelectionRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSendSelection = handler
}

// SetStatusHandler sets the handler for status commands.
func (s *Server) SetStatusHandler(handler func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = handler
}

// SetInstallResultHandler sets the handler for install_result commands.
func (s *Server) SetInstallResultHandler(handler func(success bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInstallResult = handler
}

// Run reads commands until the input stream closes. It blocks.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var cmd Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			s.sendResponse(s.errorResponse("", "", fmt.Sprintf("Failed to parse command: %v", err)))
			continue
		}

		s.sendResponse(s.handleCommand(cmd))
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// handleCommand processes a single command.
func (s *Server) handleCommand(cmd Command) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CommandConfigure:
		if s.onConfigure == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No configure handler registered")
		}
		result, err := s.onConfigure(cmd.Data)
		if err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, result)

	case CommandOpen:
		if s.onOpen == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No open handler registered")
		}
		var req OpenRequest
		if err := decode(cmd.Data, &req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		if err := s.onOpen(req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandClose:
		if s.onClose == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No close handler registered")
		}
		if err := s.onClose(); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandToggle:
		if s.onToggle == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No toggle handler registered")
		}
		var req OpenRequest
		if err := decode(cmd.Data, &req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		if err := s.onToggle(req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandSend:
		if s.onSend == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No send handler registered")
		}
		var req SendRequest
		if err := decode(cmd.Data, &req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		if err := s.onSend(req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandSendSelection:
		if s.onSendSelection == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No send_selection handler registered")
		}
		var req SendSelectionRequest
		if err := decode(cmd.Data, &req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		if err := s.onSendSelection(req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandStatus:
		if s.onStatus == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No status handler registered")
		}
		return s.successResponse(cmd.ID, cmd.Type, StatusResponse{Indicator: s.onStatus()})

	case CommandInstallResult:
		if s.onInstallResult == nil {
			return s.errorResponse(cmd.ID, cmd.Type, "No install_result handler registered")
		}
		var req InstallResultRequest
		if err := decode(cmd.Data, &req); err != nil {
			return s.errorResponse(cmd.ID, cmd.Type, err.Error())
		}
		s.onInstallResult(req.Success)
		return s.successResponse(cmd.ID, cmd.Type, nil)

	case CommandPing:
		return s.successResponse(cmd.ID, cmd.Type, map[string]string{"status": "ok"})

	default:
		return s.errorResponse(cmd.ID, cmd.Type, fmt.Sprintf("Unknown command: %s", cmd.Type))
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}

// successResponse creates a successful response.
func (s *Server) successResponse(id, command string, data any) Response {
	return Response{
		ID:      id,
		Type:    "response",
		Command: command,
		Success: true,
		Data:    data,
	}
}

// errorResponse creates an error response.
func (s *Server) errorResponse(id, command, errMsg string) Response {
	return Response{
		ID:      id,
		Type:    "response",
		Command: command,
		Success: false,
		Error:   errMsg,
	}
}

// sendResponse writes a response line. Safe to call concurrently with
// EmitEvent.
func (s *Server) sendResponse(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("marshal response", "error", err)
		return
	}
	s.writeLine(data)
}

// EmitEvent emits an event line to the shim. Events may interleave between
// responses; the shim dispatches on the type field.
func (s *Server) EmitEvent(name string, payload any) {
	data, err := json.Marshal(Event{Type: "event", Event: name, Data: payload})
	if err != nil {
		slog.Error("marshal event", "event", name, "error", err)
		return
	}
	s.writeLine(data)
}

func (s *Server) writeLine(data []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(data)
	s.out.WriteByte('\n')
	s.out.Flush()
}
