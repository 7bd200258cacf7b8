// Package main provides the terminal front desk for the tutoring-center backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheDarkness2001/SMS-sub002/internal/config"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Exit codes
const (
	exitOK             = 0
	exitError          = 1
	exitUsage          = 2
	exitSessionExpired = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("frontdesk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to frontdesk.toml")
	verbose := fs.Bool("v", false, "Enable debug logging")
	metricsFile := fs.String("metrics-file", "", "Write request metrics in Prometheus text format to this file")
	showVersion := fs.Bool("version", false, "Show version information")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "frontdesk %s (commit %s, built %s)\n", version, gitCommit, buildTime)
		return exitOK
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return exitUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", name)
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	a, err := newApp(ctx, cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer a.Close()

	code := a.execute(ctx, name, cmd, fs.Args()[1:])
	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, a.metrics.Registry()); err != nil {
			fmt.Fprintf(stderr, "Error writing metrics: %v\n", err)
		}
	}
	return code
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Front Desk - tutoring center terminal client

USAGE:
    frontdesk [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>         Path to frontdesk.toml (default: ./, ~/.config/frontdesk, /etc/frontdesk)
    -v                     Enable debug logging
    -metrics-file <path>   Write request metrics in Prometheus text format after the command
    -version               Show version information

COMMANDS:
`)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-18s %s\n", name, commands[name].summary)
	}
	fmt.Fprint(w, `
Run 'frontdesk <command> -h' for the options of a command.

EXIT CODES:
    0  success
    1  the command failed
    2  usage error
    3  the session expired; sign in again

EXAMPLES:
    frontdesk login -type teacher -login admin@center.uz
    frontdesk wallet -student 64f1c0
    frontdesk topup -amount 50000 -method click
    frontdesk pending
    frontdesk reject 6501aa -reason "Payment not received"
`)
}
