package daemon

import (
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.NewJWTVerifier([]byte(secret)).Generate(subject, time.Hour)
	require.NoError(t, err)
	return token
}
