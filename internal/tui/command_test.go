package tui

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"refresh", Command{Name: "refresh"}},
		{"  CALL   video ", Command{Name: "call", Args: "video"}},
		{"attach a.png b.pdf", Command{Name: "attach", Args: "a.png b.pdf"}},
		{"open Ana Souza", Command{Name: "open", Args: "Ana Souza"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.input))
		})
	}
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "scan.png")
	noext := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nrest"), 0600))
	require.NoError(t, os.WriteFile(noext, []byte("plain words"), 0600))

	files, closeAll, err := openFiles([]string{png, noext})
	require.NoError(t, err)
	defer closeAll()

	require.Len(t, files, 2)
	assert.Equal(t, "scan.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)
	assert.Equal(t, "notes", files[1].Name)
	assert.Equal(t, "text/plain; charset=utf-8", files[1].ContentType)

	body, err := io.ReadAll(files[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "plain words", string(body), "sniffing must not consume the body")
}

func TestOpenFilesMissing(t *testing.T) {
	_, _, err := openFiles([]string{filepath.Join(t.TempDir(), "absent.pdf")})
	assert.Error(t, err)
}

