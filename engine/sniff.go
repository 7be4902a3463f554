package engine

import (
	"net/http"
	"strings"
	"unicode"
)

// sniffLen bounds how much of a blob's content is read back from the
// staged file to sniff its MIME type, matching net/http.DetectContentType's
// own 512-byte sniff window.
const sniffLen = 512

// sniffMIME detects a MIME type from a content prefix. Detection is
// deterministic per byte-prefix (spec §9); the empty-content case falls
// through DetectContentType's signature table to its textSig match and
// returns the fixed sentinel "text/plain; charset=utf-8", so no
// special-casing is needed here.
//
// Grounded choice: neither the teacher nor any other repo in the pack
// vendors a third-party content-sniffing library (the teacher identifies
// layer media types from manifest metadata, never from content), so this
// one piece of the engine is stdlib by necessity — see DESIGN.md.
func sniffMIME(prefix []byte) string {
	return http.DetectContentType(prefix)
}

// sanitizeFilename strips path separators and control characters from an
// upload's client-supplied filename, and substitutes DefaultFilename if
// nothing usable survives. Grounded on the path-sanitization helpers in
// jmgilman-go/oci/internal/validate and meigma-blobber/internal/safepath:
// take the base name only, reject traversal segments, drop control
// characters.
func sanitizeFilename(name string) string {
	// A client may send a full path in the multipart filename; only the
	// final path component is ever meaningful here.
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue // control characters
		}
		b.WriteRune(r)
	}

	clean := strings.TrimSpace(b.String())
	switch clean {
	case "", ".", "..":
		return DefaultFilename
	}

	return clean
}
