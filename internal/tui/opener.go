package tui

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/atotto/clipboard"
)

// AttachmentOpener opens one attachment URL outside the board.
type AttachmentOpener interface {
	OpenAttachment(ctx context.Context, url string) (OpenResult, error)
}

// OpenResult reports which open channels worked. ClipboardErr is set when
// the copy failed but the open as a whole did not.
type OpenResult struct {
	Copied       bool
	Launched     bool
	ClipboardErr error
}

// ClipboardOpener copies the URL to the system clipboard and, when Command is
// set, starts Command with the URL appended as its last argument.
type ClipboardOpener struct {
	Command []string

	writeClipboard func(string) error
}

// OpenAttachment copies url and runs the configured command. With a command
// configured only a failed start is an error; without one a failed copy is.
func (o ClipboardOpener) OpenAttachment(ctx context.Context, url string) (OpenResult, error) {
	write := o.writeClipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	var res OpenResult
	clipErr := write(url)
	if clipErr != nil {
		clipErr = fmt.Errorf("copy attachment url: %w", clipErr)
	} else {
		res.Copied = true
	}

	if len(o.Command) == 0 || o.Command[0] == "" {
		return res, clipErr
	}
	res.ClipboardErr = clipErr
	args := append(append([]string(nil), o.Command[1:]...), url)
	cmd := exec.CommandContext(ctx, o.Command[0], args...)
	if err := cmd.Start(); err != nil {
		return res, fmt.Errorf("run open command: %w", err)
	}
	res.Launched = true
	go func() { _ = cmd.Wait() }()
	return res, nil
}
