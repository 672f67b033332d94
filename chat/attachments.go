package chat

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"hejchat/model"
)

// Attachment is one file the user attached to a submission, already read
// into memory by the transport layer. ReadErr records a failed read; the
// encoder degrades such files to a placeholder instead of failing the
// submission.
type Attachment struct {
	Name    string
	MIME    string
	Size    int64
	Data    []byte
	ReadErr error
}

// textExtensions are the file extensions whose contents are inlined into the
// message as text.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".csv": true, ".xml": true,
	".html": true, ".css": true, ".js": true, ".ts": true, ".py": true,
	".java": true, ".cpp": true, ".c": true, ".h": true, ".php": true,
	".rb": true, ".go": true, ".rs": true, ".yaml": true, ".yml": true,
}

func (a Attachment) isImage() bool {
	return strings.HasPrefix(a.MIME, "image/")
}

func (a Attachment) isTextLike() bool {
	if strings.HasPrefix(a.MIME, "text/") {
		return true
	}
	return textExtensions[strings.ToLower(filepath.Ext(a.Name))]
}

// EncodeAttachments converts attachments into message content parts. Images
// become inline data URIs when the model accepts them and descriptive
// placeholders otherwise; text-like files are inlined inside a fence; binary
// files get a placeholder. Read failures degrade to a placeholder per file.
func EncodeAttachments(files []Attachment, supportsVision bool) []model.ContentPart {
	var parts []model.ContentPart

	for _, file := range files {
		switch {
		case file.isImage() && supportsVision:
			if file.ReadErr != nil {
				parts = append(parts, model.TextPart(fmt.Sprintf("[Could not read image: %s]", file.Name)))
				continue
			}
			uri := fmt.Sprintf("data:%s;base64,%s", file.MIME, base64.StdEncoding.EncodeToString(file.Data))
			parts = append(parts, model.ImagePart(uri))

		case file.isImage():
			parts = append(parts, model.TextPart(fmt.Sprintf(
				"[Attached image: %s, size: %s]", file.Name, FormatFileSize(file.Size))))

		case file.ReadErr != nil:
			parts = append(parts, model.TextPart(fmt.Sprintf("[Could not read file: %s]", file.Name)))

		case file.isTextLike() && utf8.Valid(file.Data):
			parts = append(parts, model.TextPart(fmt.Sprintf(
				"[File contents: %s]\n```\n%s\n```", file.Name, string(file.Data))))

		default:
			parts = append(parts, model.TextPart(fmt.Sprintf(
				"[Attached file: %s, size: %s - binary file, contents unavailable]",
				file.Name, FormatFileSize(file.Size))))
		}
	}

	return parts
}

// FlattenAttachments renders attachments as plain text for the history log.
// Image bytes are replaced by a short placeholder so reruns and archived
// chats never carry base64 payloads.
func FlattenAttachments(files []Attachment) string {
	var infos []string

	for _, file := range files {
		switch {
		case file.isImage():
			infos = append(infos, fmt.Sprintf("[Attached image: %s]", file.Name))
		case file.ReadErr == nil && file.isTextLike() && utf8.Valid(file.Data):
			infos = append(infos, fmt.Sprintf("[File: %s]\n%s", file.Name, string(file.Data)))
		default:
			infos = append(infos, fmt.Sprintf("[Attached file: %s]", file.Name))
		}
	}

	return strings.Join(infos, "\n\n")
}

// FormatFileSize renders a byte count the way file pickers do.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1048576:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/1048576)
	}
}
