package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/config"
	"github.com/chatconsole/chatconsole/internal/console"
	"github.com/chatconsole/chatconsole/internal/instance"
	"github.com/chatconsole/chatconsole/internal/logging"
	"github.com/chatconsole/chatconsole/internal/tui"
	"github.com/chatconsole/chatconsole/internal/tui/client"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides "+instance.NameEnv+" and config default)")
	operatorFlag := flag.String("operator", "", "operator email (overrides client.operator)")
	flag.Parse()

	if err := run(*instanceFlag, *operatorFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(instanceFlag, operatorFlag string) error {
	name := instance.Resolve(instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		return err
	}
	cfg, err := config.Load(instance.ConfigPath(name))
	if err != nil {
		return err
	}
	operator, err := client.LocalOperator(cfg, operatorFlag)
	if err != nil {
		return err
	}
	token, err := client.MintToken(cfg, operator)
	if err != nil {
		return err
	}

	socketPath := instance.SocketPath(name)
	if !client.Probe(socketPath) {
		fmt.Fprintf(os.Stderr, "chatd not running for instance %q, starting...\n", name)
		if err := client.StartDaemon(name); err != nil {
			return fmt.Errorf("start chatd: %w", err)
		}
		if !client.WaitForDaemon(socketPath, 10*time.Second) {
			return fmt.Errorf("chatd did not become ready (see %s)", instance.LogPath(name))
		}
	}

	// The screen owns stderr while the TUI runs.
	logger, err := logging.New(logging.Options{
		Path:     instance.TUILogPath(name),
		Instance: name,
		Level:    cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.New(socketPath, token, logger)
	if err != nil {
		return fmt.Errorf("connect to chatd: %w", err)
	}
	defer func() { _ = c.Close() }()

	b := bus.New()
	session := console.NewSession(c, operator, b, logger)
	return tui.NewApp(session, b, c, name, logger).Run()
}
