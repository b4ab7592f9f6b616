package attach

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported attachment format")

// Kind classifies a decoded attachment.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindText  Kind = "text"
)

// Attachment is a decoded upload staged for the next outgoing message.
// Images and PDFs keep their raw bytes (the model decodes them); text and
// Word documents are reduced to plain text.
type Attachment struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"-"`
}

const wordMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Decode dispatches on the declared media type and produces an attachment.
func Decode(data []byte, mediaType, filename string) (Attachment, error) {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		format, err := sniffImage(data)
		if err != nil {
			return Attachment{}, err
		}
		return Attachment{Kind: KindImage, Name: filename, MIMEType: "image/" + format, Data: data}, nil

	case mediaType == "application/pdf":
		return Attachment{Kind: KindPDF, Name: filename, MIMEType: mediaType, Data: data}, nil

	case mediaType == "text/plain":
		return Attachment{Kind: KindText, Name: filename, MIMEType: mediaType, Text: toValidUTF8(data)}, nil

	case mediaType == wordMediaType || strings.HasSuffix(strings.ToLower(filename), ".docx"):
		text, err := extractWordText(data)
		if err != nil {
			return Attachment{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return Attachment{Kind: KindText, Name: filename, MIMEType: wordMediaType, Text: text}, nil

	default:
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: undecodable image: %v", ErrUnsupportedFormat, err)
	}
	return format, nil
}

func toValidUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// Staging buffers decoded attachments until the next outgoing message
// consumes them. Single consumer, at-most-once: TakeStaged drains the buffer.
type Staging struct {
	mu     sync.Mutex
	staged []Attachment
}

func NewStaging() *Staging { return &Staging{} }

// Stage decodes and buffers an upload, returning the index it landed at.
// The index is taken under the staging lock so concurrent uploads each see
// their own slot.
func (s *Staging) Stage(data []byte, mediaType, filename string) (Attachment, int, error) {
	a, err := Decode(data, mediaType, filename)
	if err != nil {
		return Attachment{}, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, a)
	return a, len(s.staged) - 1, nil
}

// TakeStaged returns everything staged and clears the buffer atomically.
func (s *Staging) TakeStaged() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.staged
	s.staged = nil
	return out
}

// List returns a copy of the staged attachments in staging order.
func (s *Staging) List() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attachment, len(s.staged))
	copy(out, s.staged)
	return out
}

// Len reports how many attachments are staged.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

// Drop removes the attachment at index i, reporting whether it existed.
func (s *Staging) Drop(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.staged) {
		return false
	}
	s.staged = append(s.staged[:i], s.staged[i+1:]...)
	return true
}
