// Command api serves the academy HTTP API.
//
//	@title						Academy API
//	@version					1.0
//	@description				Role-based learning-management backend.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eduacademy/academy-api/internal/api"
	"github.com/eduacademy/academy-api/internal/api/handler"
	"github.com/eduacademy/academy-api/internal/core/ports"
	"github.com/eduacademy/academy-api/internal/core/service"
	"github.com/eduacademy/academy-api/internal/infrastructure/config"
	"github.com/eduacademy/academy-api/internal/infrastructure/db/memory"
	mongodb "github.com/eduacademy/academy-api/internal/infrastructure/db/mongo"
	redisdb "github.com/eduacademy/academy-api/internal/infrastructure/db/redis"
	"github.com/eduacademy/academy-api/internal/infrastructure/queue"
	"github.com/eduacademy/academy-api/pkg/logger"
)

const serviceName = "academy-api"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// userStore is the credential store and the admin user directory.
type userStore interface {
	ports.AuthRepository
	ports.UserRepository
}

type stores struct {
	users   userStore
	course  service.CourseStores
	audit   ports.AuditRepository
	cache   ports.IdentityCache
	health  map[string]handler.Pinger
	closers []func(context.Context) error
}

func (s *stores) close(ctx context.Context) {
	log := logger.Component("store")
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})
	log := logger.Get()

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.JWTIssuer,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st.close(closeCtx)
	}()

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, st.audit, logger.Component("audit"))
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Deps{
		Log:           logger.Component("http"),
		Tokens:        tokens,
		Identities:    service.NewIdentityService(st.users, st.cache, logger.Component("identity")),
		Auth:          service.NewAuthService(st.users, tokens, cfg.Auth.BcryptCost, logger.Component("auth")),
		Instructor:    service.NewInstructorService(st.course, logger.Component("instructor")),
		Student:       service.NewStudentService(st.course, logger.Component("student")),
		Admin:         service.NewAdminService(st.course, st.cache, logger.Component("admin")),
		Audit:         dispatcher,
		Health:        st.health,
		AuthRateLimit: cfg.Auth.RateLimit,
		AuthRateBurst: cfg.Auth.RateBurst,
		Production:    cfg.IsProduction(),
	})
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := e.Shutdown(shutdownCtx)
		if derr := dispatcher.Shutdown(shutdownCtx); derr != nil {
			log.Warn().Err(derr).Msg("audit queue not fully drained")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	log := logger.Component("store")
	st := &stores{health: map[string]handler.Pinger{}}

	switch cfg.Store {
	case config.StoreMemory:
		mem := memory.New()
		st.users = mem.Users()
		st.course = service.CourseStores{
			Courses:     mem.Courses(),
			Lessons:     mem.Lessons(),
			Enrollments: mem.Enrollments(),
			Assessments: mem.Assessments(),
			Submissions: mem.Submissions(),
			Reviews:     mem.Reviews(),
			Users:       mem.Users(),
		}
		st.audit = mem.Audit()
		st.health["memory"] = mem
		log.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Disconnect)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			st.close(ctx)
			return nil, err
		}
		users := mongodb.NewUserRepository(db)
		st.users = users
		st.course = service.CourseStores{
			Courses:     mongodb.NewCourseRepository(db),
			Lessons:     mongodb.NewLessonRepository(db),
			Enrollments: mongodb.NewEnrollmentRepository(db),
			Assessments: mongodb.NewAssessmentRepository(db),
			Submissions: mongodb.NewSubmissionRepository(db),
			Reviews:     mongodb.NewReviewRepository(db),
			Users:       users,
		}
		st.audit = mongodb.NewAuditRepository(db)
		st.health["mongodb"] = mongodb.Pinger{Client: client}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	if cfg.Redis.Addr == "" {
		log.Info().Msg("identity cache disabled")
		return st, nil
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		st.close(ctx)
		return nil, err
	}
	st.closers = append(st.closers, func(context.Context) error { return rdb.Close() })
	st.cache = redisdb.NewIdentityCache(rdb, cfg.Redis.IdentityCacheTTL)
	st.health["redis"] = redisdb.Pinger{Client: rdb}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	return st, nil
}
