// Package main - точка входа HTTP backend'а Telegram mini-app.
//
// Приложение не хранит собственного состояния: весь прогресс, кошелёк и
// каталог живут на учебной платформе, а этот сервис оркестрирует правила
// прохождения курса (разблокировка уроков, завершение блоков, покупка)
// поверх её REST API.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: клиент платформы, Redis кеш, event bus
// - Interface: HTTP endpoints для фронтенда mini-app
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/USamirjon/miniapp/config"

	// Application layer
	"github.com/USamirjon/miniapp/internal/application/command"
	"github.com/USamirjon/miniapp/internal/application/query"

	// Domain layer
	"github.com/USamirjon/miniapp/internal/domain/shared"

	// Infrastructure layer
	"github.com/USamirjon/miniapp/internal/infrastructure/external/learn"
	"github.com/USamirjon/miniapp/internal/infrastructure/external/telegram"
	"github.com/USamirjon/miniapp/internal/infrastructure/messaging"
	"github.com/USamirjon/miniapp/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/USamirjon/miniapp/internal/interface/http"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting mini-app backend",
		"env", cfg.App.Environment,
		"log_level", cfg.App.LogLevel,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	// Кеш необязателен: при cfg.Redis.Enabled == false (или недоступном
	// Redis) обработчики получают nil и каждое чтение уходит на платформу.
	var queryCache query.Cache
	var commandCache command.Cache

	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			queryCache = redisCache
			commandCache = redisCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing platform client...", "base_url", cfg.Learn.BaseURL)

	learnCfg := learn.DefaultClientConfig(cfg.Learn.BaseURL)
	learnCfg.Timeout = cfg.Learn.Timeout
	learnCfg.RetryConfig.MaxRetries = cfg.Learn.MaxRetries
	learnCfg.Logger = log
	learnClient := learn.NewClient(learnCfg)

	verifierCfg := telegram.DefaultVerifierConfig(cfg.Telegram.BotToken)
	verifierCfg.MaxAge = cfg.Telegram.InitDataMaxAge
	verifier := telegram.NewVerifier(verifierCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	catalogQuery := query.NewCatalogHandler(learnClient, learnClient, queryCache, log)
	blocksQuery := query.NewCourseBlocksHandler(learnClient, learnClient, queryCache, log)
	contentQuery := query.NewBlockContentHandler(learnClient, learnClient, queryCache, log)
	walletQuery := query.NewWalletHandler(learnClient, queryCache, log)
	profileQuery := query.NewProfileHandler(learnClient, log)

	evaluateCmd := command.NewEvaluateBlockHandler(learnClient, learnClient, eventBus, commandCache, log)
	completeLessonCmd := command.NewCompleteLessonHandler(learnClient, evaluateCmd, eventBus, commandCache, log)
	submitTestCmd := command.NewSubmitTestResultHandler(learnClient, evaluateCmd, eventBus, commandCache, log)
	enrollCmd := command.NewEnrollCourseHandler(learnClient, learnClient, learnClient, eventBus, commandCache, log)
	topUpCmd := command.NewTopUpWalletHandler(learnClient, eventBus, commandCache, log)
	recordVisitCmd := command.NewRecordVisitHandler(learnClient, eventBus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	registerEventHandlers(eventBus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins

	httpDeps := httpserver.Dependencies{
		Catalog:      catalogQuery,
		CourseBlocks: blocksQuery,
		BlockContent: contentQuery,
		Wallet:       walletQuery,
		Profile:      profileQuery,

		CompleteLesson: completeLessonCmd,
		SubmitTest:     submitTestCmd,
		Enroll:         enrollCmd,
		TopUp:          topUpCmd,
		RecordVisit:    recordVisitCmd,

		Verifier:  verifier,
		Questions: learnClient,
		Health:    learnClient,
		Logger:    log,
	}

	server := httpserver.NewServer(httpCfg, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", server.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus и Redis закроются через defer
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// registerEventHandlers подписывает обработчики доменных событий.
// Пока события используются для аудита прохождения: каждое значимое
// действие студента попадает в структурированный лог.
func registerEventHandlers(bus *messaging.InMemoryEventBus, log *slog.Logger) {
	_ = bus.Subscribe(shared.EventExperienceGained, func(event shared.Event) error {
		if e, ok := event.(shared.ExperienceGainedEvent); ok {
			log.Info("experience gained",
				"telegram_id", e.TelegramID,
				"lesson_id", e.LessonID,
				"amount", e.Amount,
			)
		}
		return nil
	})

	_ = bus.Subscribe(shared.EventBlockFinished, func(event shared.Event) error {
		if e, ok := event.(shared.BlockFinishedEvent); ok {
			log.Info("block finished",
				"telegram_id", e.TelegramID,
				"block_id", e.BlockID,
			)
		}
		return nil
	})

	_ = bus.Subscribe(shared.EventCoursePurchased, func(event shared.Event) error {
		if e, ok := event.(shared.CourseEnrolledEvent); ok {
			log.Info("course purchased",
				"telegram_id", e.TelegramID,
				"course_id", e.CourseID,
				"price_paid", e.PricePaid,
			)
		}
		return nil
	})
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	}

	var handler slog.Handler
	if cfg.App.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
