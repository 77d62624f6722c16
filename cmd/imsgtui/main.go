package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheus3301/imsg/internal/app"
	"github.com/matheus3301/imsg/internal/lock"
	"github.com/matheus3301/imsg/internal/tui"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file (default ~/.imsg/config.toml)")
	dbFlag := flag.String("db", "", "path to chat.db (overrides config)")
	flag.Parse()

	if err := run(app.Params{ConfigPath: *configFlag, ChatDB: *dbFlag}); err != nil {
		exit(err)
	}
}

func run(p app.Params) error {
	var ui *tui.App
	fxApp := fx.New(app.Module(p), fx.WithLogger(app.EventLogger), fx.Populate(&ui))
	if err := fxApp.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := ui.Run(ctx)
	stop()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	return errors.Join(runErr, fxApp.Stop(stopCtx))
}

func exit(err error) {
	var held *lock.HeldError
	if errors.As(err, &held) {
		err = held
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
