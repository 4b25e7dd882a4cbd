package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestServerCommandDispatch(t *testing.T) {
	var in bytes.Buffer
	var out bytes.Buffer

	toggleCalled := false
	sendText := ""
	installOK := false

	in.WriteString(`{"id":"1","type":"toggle","data":{"surfaceVisible":false,"focus":true}}` + "\n")
	in.WriteString(`{"id":"2","type":"send","data":{"text":"hello","submit":true}}` + "\n")
	in.WriteString(`{"id":"3","type":"status"}` + "\n")
	in.WriteString(`{"id":"4","type":"install_result","data":{"success":true}}` + "\n")
	in.WriteString(`{"id":"5","type":"ping"}` + "\n")
	in.WriteString(`{"id":"6","type":"bogus"}` + "\n")

	srv := NewServer(&in, &out)
	srv.SetToggleHandler(func(req OpenRequest) error {
		toggleCalled = true
		if !req.Focus {
			t.Error("expected focus=true")
		}
		return nil
	})
	srv.SetSendHandler(func(req SendRequest) error {
		sendText = req.Text
		if !req.Submit {
			t.Error("expected submit=true")
		}
		return nil
	})
	srv.SetStatusHandler(func() string { return "[codex]" })
	srv.SetInstallResultHandler(func(ok bool) { installOK = ok })

	if err := srv.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !toggleCalled {
		t.Error("toggle handler not called")
	}
	if sendText != "hello" {
		t.Errorf("send handler got %q", sendText)
	}
	if !installOK {
		t.Error("install_result handler not called")
	}

	var responses []Response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line: %v", err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != 6 {
		t.Fatalf("expected 6 responses, got %d", len(responses))
	}
	for i, resp := range responses[:5] {
		if !resp.Success {
			t.Errorf("response %d failed: %s", i, resp.Error)
		}
	}

	status := responses[2]
	data, _ := json.Marshal(status.Data)
	if !strings.Contains(string(data), "[codex]") {
		t.Errorf("status response missing indicator: %s", data)
	}

	unknown := responses[5]
	if unknown.Success || !strings.Contains(unknown.Error, "Unknown command") {
		t.Errorf("expected unknown-command error, got %+v", unknown)
	}
}

func TestServerUnregisteredHandler(t *testing.T) {
	var in bytes.Buffer
	var out bytes.Buffer
	in.WriteString(`{"id":"1","type":"open"}` + "\n")

	srv := NewServer(&in, &out)
	if err := srv.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Success {
		t.Error("expected failure for unregistered handler")
	}
}

func TestServerMalformedLine(t *testing.T) {
	var in bytes.Buffer
	var out bytes.Buffer
	in.WriteString("not json\n")
	in.WriteString(`{"id":"1","type":"ping"}` + "\n")

	srv := NewServer(&in, &out)
	if err := srv.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected parse-error plus pong, got %d lines", len(lines))
	}

	var first Response
	json.Unmarshal(lines[0], &first)
	if first.Success {
		t.Error("expected parse error response")
	}

	var second Response
	json.Unmarshal(lines[1], &second)
	if !second.Success {
		t.Error("ping after bad line should still work")
	}
}

func TestEmitEvent(t *testing.T) {
	var in bytes.Buffer
	var out bytes.Buffer

	srv := NewServer(&in, &out)
	srv.EmitEvent("notify", map[string]string{"level": "warn", "message": "No selection"})

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &ev); err != nil {
		t.Fatalf("bad event line: %v", err)
	}
	if ev.Type != "event" || ev.Event != "notify" {
		t.Errorf("unexpected event envelope: %+v", ev)
	}
}
