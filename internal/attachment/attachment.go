// Package attachment turns a user supplied file into transcript text: a
// marker naming the file and, for plain text files, a bounded excerpt.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal"
)

const (
	excerptHeader = "[File content excerpt]"
	sniffBytes    = 3072
	defaultLimit  = 1500
)

var errNoContent = errors.New("attachment has neither data nor path")

type Normalizer struct {
	limit  int
	logger *zap.Logger
}

// NewNormalizer keeps at most limit characters of a text attachment.
func NewNormalizer(limit int, logger *zap.Logger) *Normalizer {
	if limit <= 0 {
		limit = defaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{limit: limit, logger: logger}
}

// Describe returns the transcript text for a. Read failures degrade to the
// filename marker alone. A nil attachment or one without a name yields "".
func (n *Normalizer) Describe(a *internal.Attachment) string {
	if a == nil {
		return ""
	}
	name := displayName(a)
	if name == "" {
		return ""
	}

	marker := Marker(name)
	data, err := read(a, n.readLimit())
	if err != nil {
		n.logger.Warn("attachment could not be read, sending filename only",
			zap.String("filename", name), zap.Error(err))
		return marker
	}
	if !IsPlainText(data) {
		return marker
	}

	excerpt := strings.TrimSpace(Excerpt(string(data), n.limit))
	if excerpt == "" {
		return marker
	}
	return marker + "\n" + excerptHeader + "\n" + excerpt
}

// Marker is the line that tells the model a file was attached.
func Marker(filename string) string {
	return fmt.Sprintf("[User attached file: %s]", filename)
}

// Excerpt keeps the first limit characters of s. Invalid UTF-8 at the cut is dropped.
func Excerpt(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return strings.ToValidUTF8(s, "")
	}
	count := 0
	for i := range s {
		if count == limit {
			return strings.ToValidUTF8(s[:i], "")
		}
		count++
	}
	return strings.ToValidUTF8(s, "")
}

// IsPlainText reports whether data sniffs as text/plain or a subtype of it
// (csv, json, html are all children of text/plain in the mimetype tree).
func IsPlainText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func displayName(a *internal.Attachment) string {
	name := strings.TrimSpace(a.Filename)
	if name == "" && a.Path != "" {
		name = filepath.Base(a.Path)
	}
	return name
}

// readLimit covers the excerpt at the widest UTF-8 encoding and the sniffing window.
func (n *Normalizer) readLimit() int64 {
	size := int64(n.limit) * utf8.UTFMax
	if size < sniffBytes {
		size = sniffBytes
	}
	return size
}

func read(a *internal.Attachment, size int64) ([]byte, error) {
	if a.Data != nil {
		if int64(len(a.Data)) > size {
			return a.Data[:size], nil
		}
		return a.Data, nil
	}
	if a.Path == "" {
		return nil, errNoContent
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, size))
}
