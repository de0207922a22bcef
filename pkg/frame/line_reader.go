package frame

import (
	"bufio"
	"io"
	"strings"
)

// LineReader yields whitespace-trimmed text lines from a byte stream.
type LineReader struct {
	reader *bufio.Reader
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(r)}
}

// ReadLine blocks for the next line. A final line without newline is
// returned before the stream error.
func (l *LineReader) ReadLine() (string, error) {
	line, err := l.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(strings.ToValidUTF8(line, "�")), nil
}
