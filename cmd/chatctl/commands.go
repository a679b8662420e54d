package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/config"
	"github.com/chatconsole/chatconsole/internal/instance"
	"github.com/chatconsole/chatconsole/internal/lock"
	"github.com/chatconsole/chatconsole/internal/qr"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/tui/client"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newInitCmd(g *globals) *cobra.Command {
	var operators []string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.toml with a fresh signing secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := g.instanceName()
			if err != nil {
				return err
			}
			path := instance.ConfigPath(name)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if len(operators) == 0 {
				return errors.New("at least one --operators email is required")
			}

			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return err
			}
			cfg := config.Default()
			cfg.Auth.JWTSecret = hex.EncodeToString(secret)
			cfg.Auth.Operators = operators
			cfg.Client.Operator = operators[0]
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			if err := instance.EnsureDir(name); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&operators, "operators", nil, "operator emails allowed to use the console")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := g.instanceName()
			if err != nil {
				return err
			}
			if !client.Probe(instance.SocketPath(name)) {
				msg := fmt.Sprintf("chatd is not running for instance %q", name)
				if h, ok := lock.Inspect(instance.LockPath(name)); ok {
					msg += fmt.Sprintf(" (lock held by PID %d)", h.PID)
				}
				return errors.New(msg)
			}
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			st, err := c.Status(ctx)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func newConversationsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls", "chats"},
		Short:   "List the operator's conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			convs, err := c.ListConversations(ctx)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), convs)
			}
			printConversations(cmd.OutOrStdout(), convs, time.Now())
			return nil
		},
	}
}

func newMessagesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Print a conversation thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, operator, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			msgs, err := c.ListMessages(ctx, args[0])
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), msgs)
			}
			printMessages(cmd.OutOrStdout(), msgs, operator, time.Now())
			return nil
		},
	}
}

func newSendCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <text>...",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			msg, err := c.SendText(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", msg.ID)
			return nil
		},
	}
}

func newAttachCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <conversation-id> <file>...",
		Short: "Send files as media messages, stopping at the first failure",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			for i, path := range args[1:] {
				if err := sendFile(cmd, c, args[0], path); err != nil {
					return fmt.Errorf("sent %d of %d files: %w", i, len(args)-1, err)
				}
			}
			return nil
		},
	}
}

func sendFile(cmd *cobra.Command, c *client.Client, id, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	msg, err := c.SendMedia(ctx, id, chat.File{Name: filepath.Base(path), ContentType: ct, Body: f})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s as %s\n", filepath.Base(path), msg.Media.Kind)
	return nil
}

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <conversation-id>",
		Short: "Follow a conversation thread until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, operator, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			snaps, err := c.WatchThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			seen := 0
			for snap := range snaps {
				if seen > len(snap.Messages) {
					seen = 0
				}
				printMessages(cmd.OutOrStdout(), snap.Messages[seen:], operator, time.Now())
				seen = len(snap.Messages)
			}
			if cmd.Context().Err() != nil {
				return nil
			}
			return errors.New("thread stream closed by chatd")
		},
	}
}

func newCallCmd(g *globals) *cobra.Command {
	var showQR bool
	cmd := &cobra.Command{
		Use:   "call <conversation-id> <audio|video>",
		Short: "Print the call link for a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := chat.ParseCallKind(args[1])
			if err != nil {
				return err
			}
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			link, err := c.StartCall(ctx, args[0], kind)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), rpc.StartCallResponse{URL: link})
			}
			if showQR {
				code, err := qr.Render(link, "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showQR, "qr", false, "also print the link as a QR code")
	return cmd
}

func newAppointmentsCmd(g *globals) *cobra.Command {
	parent := &cobra.Command{
		Use:   "appointments",
		Short: "Manage appointment records",
	}
	parent.AddCommand(&cobra.Command{
		Use:   "import <file.json|->",
		Short: "Import appointment records from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appts, err := readAppointments(cmd, args[0])
			if err != nil {
				return err
			}
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			n, err := c.ImportAppointments(ctx, appts)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Imported %d appointment(s)\n", n)
			return nil
		},
	})
	return parent
}

func readAppointments(cmd *cobra.Command, path string) ([]rpc.Appointment, error) {
	r := bufio.NewReader(cmd.InOrStdin())
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = bufio.NewReader(f)
	}
	var appts []rpc.Appointment
	if err := json.NewDecoder(r).Decode(&appts); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return appts, nil
}

func newTokenCmd(g *globals) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the web console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := g.config()
			if err != nil {
				return err
			}
			operator, err := client.LocalOperator(cfg, g.operator)
			if err != nil {
				return err
			}
			if !auth.NewOperators(cfg.Auth.Operators).IsOperator(operator) {
				return fmt.Errorf("%s: %w", operator, chat.ErrNotOperator)
			}
			if ttl > 0 {
				cfg.Auth.TokenTTL.Duration = ttl
			}
			token, err := client.MintToken(cfg, operator)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}
