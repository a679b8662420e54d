package tui

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatconsole/chatconsole/internal/chat"
)

// Command is a parsed ":" command line.
type Command struct {
	Name string
	Args string
}

// commandNames are the ":" commands runCommand understands.
var commandNames = []string{"attach", "call", "help", "open", "quit", "refresh"}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	name, args, _ := strings.Cut(strings.TrimSpace(input), " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// openFiles opens paths for upload. The content type comes from the file
// extension, or from sniffing the first bytes when the extension is unknown.
// The returned func closes every file.
func openFiles(paths []string) ([]chat.File, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]chat.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("attach %s: %w", p, err)
		}
		opened = append(opened, f)

		ct, err := contentType(f)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("attach %s: %w", p, err)
		}
		files = append(files, chat.File{Name: filepath.Base(p), ContentType: ct, Body: f})
	}
	return files, closeAll, nil
}

func contentType(f *os.File) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name())); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
