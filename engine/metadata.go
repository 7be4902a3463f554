package engine

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Headers renders the response headers spec §6 requires on GET/HEAD
// /blobs/{ref}: content-length, content-type, filename, created.
func (m Metadata) Headers() map[string]string {
	return map[string]string{
		"content-length": strconv.FormatInt(m.Size, 10),
		"content-type":   m.MIMEType,
		"filename":       m.Filename,
		"created":        m.Created.Format(time.RFC3339Nano),
	}
}

// DefaultFilename substitutes for an upload filename that sanitizes down
// to nothing.
const DefaultFilename = "blob"

// Metadata is the derived, write-once sidecar that accompanies a blob's
// content file. Format is internal (spec §6): a simple key=value text
// document, one field per line, chosen over JSON/YAML because nothing
// outside blobd ever parses it and the engine has no other use for a
// serialization library.
type Metadata struct {
	Filename string
	MIMEType string
	Size     int64
	Created  time.Time
}

func writeMetadata(path string, m Metadata) error {
	var b strings.Builder
	fmt.Fprintf(&b, "filename=%s\n", escapeField(m.Filename))
	fmt.Fprintf(&b, "mime_type=%s\n", escapeField(m.MIMEType))
	fmt.Fprintf(&b, "size=%d\n", m.Size)
	fmt.Fprintf(&b, "created=%s\n", m.Created.Format(time.RFC3339Nano))

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func readMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	var m Metadata
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch key {
		case "filename":
			m.Filename = unescapeField(value)
		case "mime_type":
			m.MIMEType = unescapeField(value)
		case "size":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Metadata{}, fmt.Errorf("metadata %s: invalid size %q: %w", path, value, err)
			}
			m.Size = size
		case "created":
			created, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return Metadata{}, fmt.Errorf("metadata %s: invalid created %q: %w", path, value, err)
			}
			m.Created = created
		}
	}

	return m, scanner.Err()
}

// escapeField keeps the key=value format unambiguous for filenames that
// contain a newline (sanitizeFilename already strips control characters,
// but this is cheap and makes the format robust regardless).
func escapeField(v string) string {
	return strings.ReplaceAll(v, "\n", "\\n")
}

func unescapeField(v string) string {
	return strings.ReplaceAll(v, "\\n", "\n")
}
