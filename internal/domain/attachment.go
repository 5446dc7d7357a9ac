package domain

import (
	"slices"
	"strings"
)

// DefaultAttachmentLabel labels a link attachment with no paired name.
const DefaultAttachmentLabel = "Download File"

// AttachmentMode is how an attachment renders on a card.
type AttachmentMode string

// AttachmentModeImage and AttachmentModeLink are the two rendering modes.
const (
	AttachmentModeImage AttachmentMode = "image"
	AttachmentModeLink  AttachmentMode = "link"
)

var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"}

// Attachment is one entry of a task's file list.
type Attachment struct {
	Index int
	URL   string
	Name  string
	Mode  AttachmentMode
}

// Label returns the display label for a link attachment.
func (a Attachment) Label() string {
	if a.Name == "" {
		return DefaultAttachmentLabel
	}
	return a.Name
}

// AttachmentExtension returns the lowercased substring after the final ".".
// A URL with no "." yields the whole URL lowercased.
func AttachmentExtension(url string) string {
	idx := strings.LastIndex(url, ".")
	return strings.ToLower(url[idx+1:])
}

// ClassifyAttachment decides the rendering mode for an attachment URL.
func ClassifyAttachment(url string) AttachmentMode {
	if slices.Contains(imageExtensions, AttachmentExtension(url)) {
		return AttachmentModeImage
	}
	return AttachmentModeLink
}

// Attachments pairs FilesURL with FilesName by index.
func (t Task) Attachments() []Attachment {
	if len(t.FilesURL) == 0 {
		return nil
	}
	out := make([]Attachment, 0, len(t.FilesURL))
	for i, url := range t.FilesURL {
		a := Attachment{Index: i, URL: url, Mode: ClassifyAttachment(url)}
		if i < len(t.FilesName) {
			a.Name = t.FilesName[i]
		}
		out = append(out, a)
	}
	return out
}
