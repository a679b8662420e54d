package daemon

import (
	"context"

	"github.com/chatconsole/chatconsole/internal/api"
	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/blob"
	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/config"
	"github.com/chatconsole/chatconsole/internal/instance"
	"github.com/chatconsole/chatconsole/internal/lock"
	"github.com/chatconsole/chatconsole/internal/logging"
	"github.com/chatconsole/chatconsole/internal/store"
	"github.com/chatconsole/chatconsole/internal/webconsole"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved instance configuration passed to the fx module.
type Params struct {
	Instance string
	Config   *config.Config
	// SocketPath overrides the instance socket path; empty = default.
	SocketPath string
	// Logger replaces the file logger when set.
	Logger *zap.Logger
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideVerifier,
			provideOperators,
			provideMediaSigner,
			provideBlobs,
			provideAggregator,
			provideMessenger,
			provideWatcher,
			provideDaemonService,
			provideConversationService,
			provideMessageService,
			provideCallService,
			provideAppointmentService,
			provideWebConsole,
			NewServer,
			NewHTTPServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if p.Logger != nil {
		return p.Logger.With(zap.String("instance", p.Instance)), nil
	}
	return logging.New(logging.Options{
		Path:     instance.LogPath(p.Instance),
		Instance: p.Instance,
		Level:    p.Config.Log.Level,
		Stderr:   true,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := instance.EnsureDir(p.Instance); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock")
	l, err := lock.Acquire(instance.LockPath(p.Instance))
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := instance.DBPath(p.Instance)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", db.Path()))
	return db, nil
}

func provideVerifier(p Params) *auth.JWTVerifier {
	return auth.NewJWTVerifier([]byte(p.Config.Auth.JWTSecret))
}

func provideOperators(p Params) *auth.Operators {
	return auth.NewOperators(p.Config.Auth.Operators)
}

func provideMediaSigner(p Params, v *auth.JWTVerifier) *auth.MediaSigner {
	return auth.NewMediaSigner(v, p.Config.Auth.MediaTTL.Duration)
}

func provideBlobs(p Params, signer *auth.MediaSigner, logger *zap.Logger) (*blob.Store, error) {
	return blob.New(instance.MediaDir(p.Instance), p.Config.Server.PublicURL, signer, logger)
}

func provideAggregator(db *store.DB, ops *auth.Operators, logger *zap.Logger) *chat.Aggregator {
	return chat.NewAggregator(db, ops, logger)
}

func provideMessenger(db *store.DB, blobs *blob.Store, b *bus.Bus, logger *zap.Logger) *chat.Messenger {
	return chat.NewMessenger(db, blobs, b, logger)
}

func provideWatcher(db *store.DB, blobs *blob.Store, b *bus.Bus, logger *zap.Logger) *chat.Watcher {
	return chat.NewWatcher(db, blobs, b, logger)
}

func provideDaemonService(p Params, ops *auth.Operators, db *store.DB, logger *zap.Logger) *api.DaemonService {
	return api.NewDaemonService(p.Instance, ops, db, logger)
}

func provideConversationService(a *chat.Aggregator, logger *zap.Logger) *api.ConversationService {
	return api.NewConversationService(a, logger)
}

func provideMessageService(m *chat.Messenger, w *chat.Watcher, logger *zap.Logger) *api.MessageService {
	return api.NewMessageService(m, w, logger)
}

func provideCallService(p Params) *api.CallService {
	return api.NewCallService(callBase(p.Config))
}

func provideAppointmentService(db *store.DB, logger *zap.Logger) *api.AppointmentService {
	return api.NewAppointmentService(db, logger)
}

func provideWebConsole(p Params, logger *zap.Logger) *webconsole.Handler {
	return webconsole.NewHandler(webconsole.NewBootstrap(p.Config.Worker.SandboxHosts, logger), logger)
}

// callBase falls back to the public URL when no dedicated call host is set.
func callBase(cfg *config.Config) string {
	if cfg.Call.BaseURL != "" {
		return cfg.Call.BaseURL
	}
	return cfg.Server.PublicURL
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, httpSrv *HTTPServer, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			go func() {
				if err := httpSrv.Start(); err != nil {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			httpSrv.Stop(ctx)
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
