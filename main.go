package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sessionbook/internal/auth"
	intconfig "sessionbook/internal/config"
	intdb "sessionbook/internal/db"
	"sessionbook/internal/events"
	router "sessionbook/internal/http"
	h "sessionbook/internal/http/handlers"
	"sessionbook/internal/http/middleware"
	"sessionbook/internal/jobs"
	"sessionbook/internal/payments"
	"sessionbook/internal/repositories"
	"sessionbook/internal/services"
	"sessionbook/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("load env: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	logger, err := utils.InitLogger(env.LogLevel, gin.Mode() == gin.DebugMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(env, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped cleanly")
}

func run(env intconfig.Env, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := intconfig.ConnectDB(env.MySQLDSN)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	if env.AutoMigrate {
		if err := intdb.EnsureSchema(ctx, db); err != nil {
			return err
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if env.RabbitURL != "" {
		rp, err := events.NewRabbitPublisher(env.RabbitURL, env.BookingExchange)
		if err != nil {
			return err
		}
		defer rp.Close()
		publisher = rp
	}

	bookings := repositories.BookingRepository{DB: db}
	sessions := repositories.SessionRepository{DB: db}
	wishlist := repositories.WishlistRepository{DB: db}
	gateway := payments.NewStripeGateway(env.StripeSecretKey, env.StripeWebhookSecret)

	hs := h.Handlers{
		Payments: services.PaymentService{
			Sessions:     sessions,
			Availability: services.AvailabilityService{Bookings: bookings},
			Gateway:      gateway,
			Currency:     env.Currency,
			MinorFactor:  env.MinorFactor,
		},
		Webhooks: services.WebhookService{
			Bookings:    bookings,
			Sessions:    sessions,
			Wishlist:    wishlist,
			Publisher:   publisher,
			MinorFactor: env.MinorFactor,
			Currency:    env.Currency,
		},
		Bookings: services.BookingService{
			Bookings:    bookings,
			Sessions:    sessions,
			Gateway:     gateway,
			Publisher:   publisher,
			MinorFactor: env.MinorFactor,
		},
		Rooms: services.RoomService{
			Bookings: bookings,
			Tokens:   auth.RoomTokenIssuer{Secret: []byte(env.RoomTokenSecret), TTL: env.RoomTokenTTL},
		},
		Wishlist: services.WishlistService{Sessions: sessions, Wishlist: wishlist},
		Docs:     services.DocsService{Bookings: bookings, Sessions: sessions},
		Events:   gateway,
	}

	limiter := middleware.NewIPRateLimiter(env.RateLimitRPS, env.RateLimitBurst)
	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, hs, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	sweeper := jobs.CompletionSweeper{
		Bookings:  bookings,
		Publisher: publisher,
		Interval:  env.SweepInterval,
		Buffer:    env.CompletionBuffer,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				limiter.Prune(30 * time.Minute)
			}
		}
	})
	return g.Wait()
}
