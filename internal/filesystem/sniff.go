package filesystem

import (
	"io"
	"os"

	"github.com/h2non/filetype"
)

// sniffHeaderSize is the number of leading bytes filetype needs
const sniffHeaderSize = 261

// Kind describes the content type detected from a file header
type Kind struct {
	MIME       string
	Extension  string
	Executable bool
	Archive    bool
}

var executableKinds = map[string]bool{
	"exe":   true,
	"elf":   true,
	"macho": true,
}

// Sniff reads the file header and detects its content type
func Sniff(path string) (Kind, error) {
	file, err := os.Open(path)
	if err != nil {
		return Kind{}, err
	}
	defer file.Close()

	buf := make([]byte, sniffHeaderSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Kind{}, err
	}

	return SniffBytes(buf[:n]), nil
}

// SniffBytes detects the content type of a file header
func SniffBytes(header []byte) Kind {
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "" {
		return Kind{MIME: "unknown"}
	}
	return Kind{
		MIME:       kind.MIME.Value,
		Extension:  kind.Extension,
		Executable: executableKinds[kind.Extension],
		Archive:    kind.Extension == "zip",
	}
}
