package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chatconsole/chatconsole/internal/config"
	"github.com/chatconsole/chatconsole/internal/daemon"
	"github.com/chatconsole/chatconsole/internal/instance"
	"go.uber.org/fx"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides "+instance.NameEnv+" and config default)")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(instance.ConfigPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid %s:\n%v\n", instance.ConfigPath(name), err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Instance: name, Config: cfg}),
	)
	app.Run()
}
