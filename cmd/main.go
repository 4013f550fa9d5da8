package main

import (
	"context"
	"convo-hub/auth"
	"convo-hub/infrastructure/http/handler"
	"convo-hub/infrastructure/ws"
	"convo-hub/repositories"
	"convo-hub/runtime"
	"convo-hub/runtime/workers"
	"convo-hub/services"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run builds every component, serves until a signal arrives and returns the
// first fatal error. Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	conversationRepository := repositories.NewConversationRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)

	// 3. Event bus under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry(log, config.BufferSize, config.SinkTimeout, config.PublishTimeout)
	bus := runtime.NewEventBus(log, registry, config.OrderTimeout)
	orchestrator := runtime.NewOrchestrator(log, sup, registry, bus)
	sup.Add(runtime.NewStatsReporter(log, registry, config.StatsInterval))

	// 4. Services
	publisher := services.NewPublisher(log, bus)
	conversationService := services.NewConversationService(log, conversationRepository, publisher)
	messageService := services.NewMessageService(log, conversationRepository, messageRepository,
		publisher, config.MaxContentLength)
	userService := services.NewUserService(log, userRepository, publisher)
	subscriptionService := services.NewSubscriptionService(log, registry, conversationRepository)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. HTTP & websocket transport
	tokens := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)
	requireSession := auth.RequireSession(tokens, userService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(log))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.NewHandler(conversationService, messageService, userService).RegisterRoutes(router, requireSession)
	ws.NewSubscriptionHandler(log, subscriptionService, ws.DefaultConfig(config.ConnectionBufferSize)).
		RegisterRoutes(router, requireSession)

	g, gCtx := errgroup.WithContext(ctx)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
		// Hijacked websocket connections are not tracked by Shutdown, they
		// follow this context instead.
		BaseContext: func(net.Listener) context.Context { return gCtx },
	}

	// 7. Run until a signal or the first failure
	g.Go(func() error {
		orchestrator.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		log.Info("Starting HTTP server", "address", address)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		orchestrator.Stop()
		return err
	})

	if err = g.Wait(); err != nil {
		return err
	}
	log.Info("Program stopped cleanly")
	return nil
}
