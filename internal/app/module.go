// Package app assembles the live terminal client with fx: configuration,
// logging, the instance lock, both databases, the watcher, the dispatcher
// and the UI.
package app

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/imsg/internal/bus"
	"github.com/matheus3301/imsg/internal/config"
	"github.com/matheus3301/imsg/internal/contacts"
	"github.com/matheus3301/imsg/internal/dispatch"
	"github.com/matheus3301/imsg/internal/lock"
	"github.com/matheus3301/imsg/internal/logging"
	"github.com/matheus3301/imsg/internal/paths"
	"github.com/matheus3301/imsg/internal/state"
	"github.com/matheus3301/imsg/internal/store"
	"github.com/matheus3301/imsg/internal/tui"
	"github.com/matheus3301/imsg/internal/watcher"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Component names the log file and the logger's component field.
const Component = "imsgtui"

// Params holds the command-line overrides passed to the fx module.
type Params struct {
	ConfigPath string // empty = paths.ConfigPath()
	ChatDB     string // overrides the config's chat_db

	// Logger and Screen are injected by tests. Nil selects the log file
	// and the real terminal.
	Logger *zap.Logger
	Screen tcell.Screen
}

// Module returns the fx module for the live client.
func Module(p Params) fx.Option {
	return fx.Module("imsgtui",
		fx.Supply(p),
		fx.WithLogger(EventLogger),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideLock,
			NewResolver,
			provideStore,
			provideReader,
			provideState,
			provideQueue,
			provideWatcher,
			NewSender,
			provideUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

// EventLogger routes fx's own events to the application log instead of
// stderr, which belongs to the terminal UI.
func EventLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = paths.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if p.ChatDB != "" {
		cfg.ChatDB = p.ChatDB
	}
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	if p.Logger != nil {
		return p.Logger, nil
	}
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return logging.New(Component, logging.Options{
		Path:  paths.LogPath(Component),
		Level: lvl,
	})
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	if err := paths.EnsureDir(); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock", zap.String("dir", paths.BaseDir()))
	l, err := lock.Acquire(paths.BaseDir())
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

// NewResolver returns an address book resolver for the configured directory,
// or contacts.Nop when there is none.
func NewResolver(cfg *config.Config, logger *zap.Logger) store.NameResolver {
	dir := cfg.AddressBookDir
	if dir == "" {
		dir = contacts.DefaultDir()
	}
	if len(contacts.Sources(dir)) == 0 {
		logger.Info("no address book found, showing raw identifiers", zap.String("dir", dir))
		return contacts.Nop{}
	}
	ab := contacts.NewAddressBook(dir, logger)
	if err := ab.Load(); err != nil {
		logger.Warn("address book load failed", zap.Error(err))
	}
	logger.Info("address book loaded", zap.Int("entries", ab.Len()))
	return ab
}

// ChatDBPath returns the configured chat.db, or the macOS default.
func ChatDBPath(cfg *config.Config) string {
	if cfg.ChatDB != "" {
		return cfg.ChatDB
	}
	return store.DefaultPath()
}

func provideStore(cfg *config.Config, resolver store.NameResolver, logger *zap.Logger) (*store.DB, error) {
	path := ChatDBPath(cfg)
	db, err := store.Open(path, resolver)
	if err != nil {
		return nil, err
	}
	logger.Info("messages store opened", zap.String("path", path))
	return db, nil
}

func provideReader(db *store.DB) store.Reader {
	return db
}

// provideState takes the lock so the state DB is never opened by two
// instances at once.
func provideState(cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (*state.DB, error) {
	path := paths.StateDBPath()
	db, result, err := state.OpenAndMigrate(path)
	if err != nil {
		return nil, err
	}
	if result.Changed() {
		logger.Info("state schema migrated", zap.Uint("from", result.From), zap.Uint("to", result.To))
	} else {
		logger.Debug("state schema current", zap.Uint("version", result.To))
	}
	if err := db.TrimHistory(cfg.HistoryLimit); err != nil {
		logger.Warn("history trim failed", zap.Error(err))
	}
	return db, nil
}

func provideQueue() *bus.Queue {
	return bus.NewQueue()
}

func provideWatcher(cfg *config.Config, db *store.DB, r store.Reader, logger *zap.Logger) *watcher.Watcher {
	opts := watcher.Options{
		Interval:          cfg.PollInterval.Duration,
		ConversationLimit: cfg.ConversationLimit,
	}
	if cfg.WatchFS {
		opts.WatchPath = db.Path()
	}
	return watcher.New(r, opts, logger.Named("watcher"))
}

// NewSender builds the dispatch chain: AppleScript, bounded by the configured
// timeout, journaled in the state DB.
func NewSender(cfg *config.Config, st *state.DB, logger *zap.Logger) dispatch.Sender {
	log := logger.Named("dispatch")
	script := dispatch.NewAppleScript(dispatch.OSAScript{}, log)
	return dispatch.NewJournal(dispatch.WithTimeout(script, cfg.DispatchTimeout.Duration), st, log)
}

func provideUI(p Params, cfg *config.Config, r store.Reader, sender dispatch.Sender, q *bus.Queue, st *state.DB, logger *zap.Logger) *tui.App {
	return tui.New(tui.Deps{
		Reader:  r,
		Sender:  sender,
		Queue:   q,
		History: st,
		Logger:  logger.Named("ui"),
		Screen:  p.Screen,
	}, tui.Options{
		ConversationLimit: cfg.ConversationLimit,
		MessageLimit:      cfg.MessageLimit,
		HistoryLimit:      cfg.HistoryLimit,
		DispatchTimeout:   cfg.DispatchTimeout.Duration,
	})
}

func registerLifecycle(lc fx.Lifecycle, w *watcher.Watcher, q *bus.Queue, db *store.DB, st *state.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			w.OnNewMessages(func(msgs []store.Message) {
				q.Publish(bus.KindNewMessages, msgs)
			})
			w.OnConversations(func(convs []store.Conversation) {
				q.Publish(bus.KindConversations, convs)
			})
			w.OnError(func(err error) {
				q.Publish(bus.KindError, err)
			})
			w.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			w.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing messages store", zap.Error(err))
			}
			if err := st.Close(); err != nil {
				logger.Warn("error closing state db", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("imsgtui stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
