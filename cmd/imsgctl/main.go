package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/imsg/internal/app"
	"github.com/matheus3301/imsg/internal/config"
	"github.com/matheus3301/imsg/internal/logging"
	"github.com/matheus3301/imsg/internal/paths"
	"github.com/matheus3301/imsg/internal/store"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli carries the global flags and resolved configuration to each command.
type cli struct {
	cfg     *config.Config
	logger  *zap.Logger
	jsonOut bool
}

func main() {
	configFlag := flag.String("config", "", "config file (default ~/.imsg/config.toml)")
	dbFlag := flag.String("db", "", "path to chat.db (overrides config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verboseFlag := flag.Bool("v", false, "log to stderr as well as the log file")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	if args[0] == "version" {
		fmt.Printf("imsgctl %s\n", version)
		return
	}

	path := *configFlag
	if path == "" {
		path = paths.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fail(err)
	}
	if *dbFlag != "" {
		cfg.ChatDB = *dbFlag
	}
	lvl, _ := cfg.Level()
	logger, err := logging.New("imsgctl", logging.Options{
		Path:    paths.LogPath("imsgctl"),
		Console: *verboseFlag,
		Level:   lvl,
	})
	if err != nil {
		fail(err)
	}
	defer func() { _ = logger.Sync() }()

	c := &cli{cfg: cfg, logger: logger, jsonOut: *jsonFlag}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DispatchTimeout.Duration+10*time.Second)
	defer cancel()

	if err := c.run(ctx, args[0], args[1:]); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Error())
			os.Exit(1)
		}
		logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		fail(err)
	}
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list", "ls":
		return c.cmdList(ctx, args)
	case "read":
		return c.cmdRead(ctx, args)
	case "send":
		return c.cmdSend(ctx, args)
	case "search":
		return c.cmdSearch(ctx, args)
	case "status":
		return c.cmdStatus(ctx)
	default:
		printUsage()
		return usageError(fmt.Sprintf("unknown command: %s", cmd))
	}
}

// usageError is printed verbatim, without the "error:" prefix.
type usageError string

func (e usageError) Error() string { return string(e) }

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: imsgctl [--config <path>] [--db <chat.db>] [--json] [-v] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  list [-n 20]                         List recent conversations")
	fmt.Fprintln(os.Stderr, "  read [-n 30] <number|identifier>     Show messages from a conversation")
	fmt.Fprintln(os.Stderr, "  send [-y] <recipient> <message>      Send a message")
	fmt.Fprintln(os.Stderr, "  search [-n 20] <query>               Search message text")
	fmt.Fprintln(os.Stderr, "  status                               Check chat.db, contacts and Messages.app")
	fmt.Fprintln(os.Stderr, "  version                              Print the version")
}

func (c *cli) openStore() (*store.DB, error) {
	return store.Open(app.ChatDBPath(c.cfg), app.NewResolver(c.cfg, c.logger))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
