package tui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// TestClipboardOpenerReportsChannelsSeparately verifies a failed copy only
// fails the open when no command is configured.
func TestClipboardOpenerReportsChannelsSeparately(t *testing.T) {
	headless := func(string) error { return errors.New("no clipboard utilities available") }
	var copied []string
	working := func(url string) error {
		copied = append(copied, url)
		return nil
	}
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true binary not available")
	}
	const url = "https://cdn.example.com/report.pdf"

	res, err := ClipboardOpener{Command: []string{truePath}, writeClipboard: headless}.OpenAttachment(context.Background(), url)
	if err != nil {
		t.Fatalf("expected command success to win over clipboard failure, got %v", err)
	}
	if !res.Launched || res.Copied || res.ClipboardErr == nil {
		t.Fatalf("unexpected result %#v", res)
	}

	res, err = ClipboardOpener{writeClipboard: headless}.OpenAttachment(context.Background(), url)
	if err == nil || !strings.Contains(err.Error(), "copy attachment url") || res.Launched {
		t.Fatalf("expected clipboard error without a command, got %#v %v", res, err)
	}

	res, err = ClipboardOpener{Command: []string{"lanes-missing-opener"}, writeClipboard: working}.OpenAttachment(context.Background(), url)
	if err == nil || !strings.Contains(err.Error(), "run open command") {
		t.Fatalf("expected open command error, got %v", err)
	}
	if !res.Copied || res.Launched || len(copied) != 1 || copied[0] != url {
		t.Fatalf("expected url copied before the command failed, got %#v %v", res, copied)
	}
}

// TestBoardAttachmentOpenStatus verifies the status line for each open outcome.
func TestBoardAttachmentOpenStatus(t *testing.T) {
	const url = "https://cdn.example.com/report.pdf"
	cases := []struct {
		name string
		msg  attachmentOpenedMsg
		want string
	}{
		{name: "copied", msg: attachmentOpenedMsg{url: url, result: OpenResult{Copied: true}}, want: "copied " + url},
		{name: "launched without clipboard", msg: attachmentOpenedMsg{url: url, result: OpenResult{Launched: true, ClipboardErr: errors.New("headless")}}, want: "opened " + url},
		{name: "command failed after copy", msg: attachmentOpenedMsg{url: url, result: OpenResult{Copied: true}, err: errors.New("exec")}, want: "copied " + url + " (open command failed)"},
		{name: "nothing worked", msg: attachmentOpenedMsg{url: url, err: errors.New("headless")}, want: "could not open attachment"},
	}
	for _, tc := range cases {
		m := loadBoard(t, newFakeService(testProjects()))
		m = applyMsg(t, m, tc.msg)
		if m.status != tc.want {
			t.Fatalf("%s: status = %q, want %q", tc.name, m.status, tc.want)
		}
	}
}
