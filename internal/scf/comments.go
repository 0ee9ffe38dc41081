package scf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vertti/chromapack/internal/chromatogram"
)

// decodeComments parses "key=value" lines. The section ends at the first
// NUL; lines without '=' become keys with empty values.
func decodeComments(data []byte) chromatogram.Comments {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	var comments chromatogram.Comments
	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		comments = append(comments, chromatogram.Comment{Key: key, Value: value})
	}
	return comments
}

// encodeComments writes one "key=value" line per comment followed by a
// NUL terminator. No comments produce an empty section. Comments that would
// read back differently are rejected.
func encodeComments(comments chromatogram.Comments) ([]byte, error) {
	if len(comments) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	for _, c := range comments {
		if strings.ContainsAny(c.Key, "=\n\r\x00") || strings.ContainsAny(c.Value, "\n\r\x00") {
			return nil, fmt.Errorf("comment %q cannot be stored in an scf comments section", c.Key)
		}
		buf.WriteString(c.Key)
		buf.WriteByte('=')
		buf.WriteString(c.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte(0)
	return buf.Bytes(), nil
}
