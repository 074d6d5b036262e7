// ====================================
// File: cmd/bonfidabot/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rovshanmuradov/bonfida-bot/internal/pool"
)

const usageText = `usage: bonfidabot <command> [flags]

commands:
  init-pool     allocate a pool account and its mint
  init-order    bind an order tracker to an open orders account
  create-pool   make the initial deposit and set the signal provider
  deposit       buy pool tokens
  create-order  place a serum order for the pool
  derive        find the pool seed and address for a base seed
  inspect       decode instruction data or show a pool account

run "bonfidabot <command> -h" for the flags of a command`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usageText)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	name, rest := args[0], args[1:]

	switch name {
	case "derive":
		return runDerive(rest, out)
	case "inspect":
		return runInspect(ctx, rest, out)
	case "-h", "-help", "--help", "help":
		fmt.Fprintln(out, usageText)
		return nil
	}

	cmd, ok := operations[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return runOperation(ctx, name, cmd, rest, out)
}

// operation registers the flags of one command and returns the function
// that runs it once the flags are parsed.
type operation func(f *commonFlags) func(ctx context.Context, svc *pool.Service) (*pool.Result, error)

var operations = map[string]operation{
	"init-pool":    initPoolCommand,
	"init-order":   initOrderCommand,
	"create-pool":  createPoolCommand,
	"deposit":      depositCommand,
	"create-order": createOrderCommand,
}
