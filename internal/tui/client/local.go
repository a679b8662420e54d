package client

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/config"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNoOperator is returned when no operator identity can be resolved for a
// local client.
var ErrNoOperator = errors.New("no operator configured: set client.operator in config.toml or pass --operator")

// LocalOperator picks the identity a local client acts as: override, then
// client.operator, then the first configured operator.
func LocalOperator(cfg *config.Config, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg.Client.Operator != "" {
		return cfg.Client.Operator, nil
	}
	if len(cfg.Auth.Operators) > 0 {
		return cfg.Auth.Operators[0], nil
	}
	return "", ErrNoOperator
}

// MintToken signs a token for operator with the instance secret. Clients on
// the daemon's host share its config, so they authenticate the same way a
// web console holding an issued token does.
func MintToken(cfg *config.Config, operator string) (string, error) {
	if cfg.Auth.JWTSecret == "" {
		return "", errors.New("auth.jwt_secret is not set")
	}
	return auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)).Generate(operator, cfg.Auth.TokenTTL.Duration)
}

// Probe reports whether a daemon answers on socketPath. An authentication
// failure still means a daemon is there.
func Probe(socketPath string) bool {
	c, err := New(socketPath, "", zap.NewNop())
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Status(ctx)
	switch status.Code(err) {
	case codes.OK, codes.Unauthenticated, codes.PermissionDenied:
		return true
	default:
		return false
	}
}

// StartDaemon launches chatd for instance in the background. chatd is
// looked up next to the running executable first, then on PATH.
func StartDaemon(instance string) error {
	chatd := "chatd"
	if exe, err := os.Executable(); err == nil {
		if p := filepath.Join(filepath.Dir(exe), "chatd"); fileExists(p) {
			chatd = p
		}
	}
	cmd := exec.Command(chatd, "--instance", instance)
	return cmd.Start()
}

// WaitForDaemon polls Probe until it succeeds or timeout passes.
func WaitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Probe(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
