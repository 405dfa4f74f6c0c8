package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"techfeed/internal/auth"
	"techfeed/internal/config"
	apphttp "techfeed/internal/http"
	"techfeed/internal/repository"
	"techfeed/internal/repository/postgres"
	"techfeed/internal/repository/sqlite"
	"techfeed/internal/service"
)

type repositories struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	close    func()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer repos.close()

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		TTL:        time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}

	userService := service.NewUserService(repos.users)
	postService := service.NewPostService(repos.posts, repos.comments, repos.votes)
	commentService := service.NewCommentService(repos.comments)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		postService,
		commentService,
		sessions,
		apphttp.NewMetrics(),
		logger,
		cfg.Server.AllowOrigin,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*repositories, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Init(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("using postgres database")
		return &repositories{
			users:    postgres.NewUserRepository(pool),
			posts:    postgres.NewPostRepository(pool),
			comments: postgres.NewCommentRepository(pool),
			votes:    postgres.NewVoteRepository(pool),
			close:    pool.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Init(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return &repositories{
			users:    sqlite.NewUserRepository(db),
			posts:    sqlite.NewPostRepository(db),
			comments: sqlite.NewCommentRepository(db),
			votes:    sqlite.NewVoteRepository(db),
			close:    func() { db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
