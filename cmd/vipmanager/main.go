package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rafabd1/vipmanager/internal/commands"
	"github.com/rafabd1/vipmanager/internal/config"
	"github.com/rafabd1/vipmanager/internal/store"
	"github.com/rafabd1/vipmanager/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	// 0. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	// 1. Logging: the TUI owns the terminal, so it logs to a file.
	interactive := len(args) == 0
	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.Source != "" {
		logger.WithField("path", cfg.Source).Debug("configuration loaded")
	}

	// 2. Open the member store
	s := store.New(store.NewFileBackend(cfg.DataFile()), store.Options{
		Rollback: cfg.RollbackPolicy(),
		Logger:   logger,
	})
	s.Load(ctx)
	if s.State() != store.StateReady {
		s.Close()
		return errors.Errorf("could not load members from %s; see the log for details", cfg.DataFile())
	}

	sortKey, _ := cfg.SortKey()

	// 3. Interactive mode
	if interactive {
		defer s.Close()
		return tui.Run(ctx, s, tui.Options{
			Locale:      cfg.LocaleTag(),
			DefaultSort: sortKey,
			Logger:      logger,
		})
	}

	// 4. One-shot command
	registry := commands.NewRegistry()
	cmdsToRegister := []commands.Command{
		&commands.HelpCmd{Registry: registry},
		&commands.ListCmd{Store: s, DefaultSort: sortKey, Locale: cfg.LocaleTag()},
		&commands.AddCmd{Store: s},
		&commands.EditCmd{Store: s},
		&commands.DeleteCmd{Store: s},
	}
	for _, cmd := range cmdsToRegister {
		if err := registry.Register(cmd); err != nil {
			s.Close()
			return errors.Wrapf(err, "register command %s", cmd.Name())
		}
	}

	results := s.Subscribe()
	cmdErr := registry.Run(ctx, args, stdout)
	s.Close() // waits for the queued write
	if cmdErr != nil {
		return cmdErr
	}
	for ev := range results {
		if ev.Kind == store.EventPersistFailed && ev.Op != store.OpResync {
			return errors.Wrapf(ev.Err, "save %s of %s", ev.Op, ev.Member.StoreName)
		}
	}
	return nil
}

// newLogger writes to the configured log file in interactive mode and to stderr
// otherwise, where info messages are suppressed unless debug logging is on.
func newLogger(cfg *config.Config, interactive bool) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level := cfg.LogLevel()

	if !interactive {
		if level == logrus.InfoLevel {
			level = logrus.WarnLevel
		}
		logger.SetLevel(level)
		logger.SetOutput(os.Stderr)
		return logger, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open log file %s", cfg.Log.File)
	}
	logger.SetLevel(level)
	logger.SetOutput(f)
	return logger, func() { _ = f.Close() }, nil
}
