package main

import (
	"encoding/json"

	"log/slog"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/config"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/logger"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/rpc"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/selection"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/session"
)

// registerHandlers wires the RPC surface to the session. The shim exposes
// :Codex, :CodexToggle (alias), and :CodexSend on top of these.
func registerHandlers(srv *rpc.Server, sess *session.Session, ui *rpcUI, cfg *config.Config) {
	current := cfg

	srv.SetConfigureHandler(func(data json.RawMessage) (any, error) {
		next := current.Clone()
		if err := next.Apply(data); err != nil {
			return nil, err
		}
		if err := sess.SetConfig(next); err != nil {
			return nil, err
		}

		if next.Log != current.Log {
			if log, _, err := logger.New(next.Log); err == nil {
				slog.SetDefault(log)
			}
		}
		current = next
		slog.Info("configuration applied", "cmd", next.Cmd.Argv(), "capture", next.Capture)

		// The shim binds the keymaps; echo the full effective config back.
		return next, nil
	})

	srv.SetOpenHandler(func(req rpc.OpenRequest) error {
		ui.UpdateState(req.UIState)
		return sess.Open(openOptions(req))
	})

	srv.SetCloseHandler(func() error {
		return sess.Close()
	})

	srv.SetToggleHandler(func(req rpc.OpenRequest) error {
		ui.UpdateState(req.UIState)
		return sess.Toggle(openOptions(req))
	})

	srv.SetSendHandler(func(req rpc.SendRequest) error {
		ui.UpdateState(req.UIState)
		return sess.Send(req.Text, req.Submit)
	})

	srv.SetSendSelectionHandler(func(req rpc.SendSelectionRequest) error {
		ui.UpdateState(req.UIState)
		return sess.SendSelection(session.SelectionRequest{
			Request: selection.Request{
				Mode:       parseMode(req.Mode),
				Start:      selection.Mark{Line: req.Start.Line, Col: req.Start.Col},
				End:        selection.Mark{Line: req.End.Line, Col: req.End.Col},
				BufferName: req.BufferName,
				Lines:      req.Lines,
				ExpandTabs: req.ExpandTabs,
				TabWidth:   req.TabWidth,
			},
			InVisual:  req.InVisual,
			Submit:    req.Submit,
			BufferDir: req.BufferDir,
			Cols:      req.Cols,
			Rows:      req.Rows,
		})
	})

	srv.SetStatusHandler(sess.Status)

	srv.SetInstallResultHandler(ui.InstallResult)
}

func openOptions(req rpc.OpenRequest) session.OpenOptions {
	return session.OpenOptions{
		Focus:     req.Focus,
		BufferDir: req.BufferDir,
		Cols:      req.Cols,
		Rows:      req.Rows,
	}
}

func parseMode(mode string) selection.Mode {
	switch mode {
	case "line", "V":
		return selection.ModeLine
	case "block", "b", "\x16":
		return selection.ModeBlock
	default:
		return selection.ModeChar
	}
}
