package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatconsole/chatconsole/internal/config"
	"github.com/chatconsole/chatconsole/internal/instance"
	"github.com/chatconsole/chatconsole/internal/tui/client"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// globals are the persistent flags shared by every command.
type globals struct {
	instance string
	operator string
	json     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Inspect and drive a chatconsole daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.instance, "instance", "", "instance name (overrides "+instance.NameEnv+" and config default)")
	root.PersistentFlags().StringVar(&g.operator, "operator", "", "operator email (overrides client.operator)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")

	root.AddCommand(
		newInitCmd(g),
		newStatusCmd(g),
		newConversationsCmd(g),
		newMessagesCmd(g),
		newSendCmd(g),
		newAttachCmd(g),
		newWatchCmd(g),
		newCallCmd(g),
		newAppointmentsCmd(g),
		newTokenCmd(g),
	)
	return root
}

func (g *globals) instanceName() (string, error) {
	name := instance.Resolve(g.instance)
	if err := instance.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (g *globals) config() (string, *config.Config, error) {
	name, err := g.instanceName()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(instance.ConfigPath(name))
	if err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

// connect dials the instance daemon as the resolved operator.
func (g *globals) connect() (*client.Client, string, error) {
	name, cfg, err := g.config()
	if err != nil {
		return nil, "", err
	}
	operator, err := client.LocalOperator(cfg, g.operator)
	if err != nil {
		return nil, "", err
	}
	token, err := client.MintToken(cfg, operator)
	if err != nil {
		return nil, "", err
	}
	c, err := client.New(instance.SocketPath(name), token, zap.NewNop())
	if err != nil {
		return nil, "", fmt.Errorf("cannot connect to chatd for instance %q: %w", name, err)
	}
	return c, operator, nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
