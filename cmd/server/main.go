package main // Entry point package

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/config"
	"github.com/Leandro1530/CinemaWeb-v4/internal/database"
	"github.com/Leandro1530/CinemaWeb-v4/internal/handler"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	appmw "github.com/Leandro1530/CinemaWeb-v4/internal/middleware"
	"github.com/Leandro1530/CinemaWeb-v4/internal/notifier"
	"github.com/Leandro1530/CinemaWeb-v4/internal/payment"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/router"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
	"github.com/Leandro1530/CinemaWeb-v4/internal/webhook"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	// The journal is the durable record of holds and money-state.  Failing
	// to reach it at boot is fatal; failing mid-flight halts the engine.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureSchema(bootCtx, db); err != nil {
		cancelBoot()
		log.Fatalf("schema: %v", err)
	}
	cancelBoot()

	journal := repository.NewSQLJournal(db)
	events := repository.NewSQLEventLog(db)

	// Seed the catalog and register every showtime's seat grid as FREE.
	shows, combos := catalog.Seed(cfg.TicketPriceCents)
	cat := catalog.NewStatic(shows, combos)
	seats := seatmap.New()
	for _, st := range shows {
		seats.Register(st.ID, catalog.SeatLabels(st))
	}

	// Receipt pipeline.  The publisher degrades to logged errors when the
	// broker is down; confirmations never block checkout.
	var notify notifier.Notifier
	if cfg.RabbitURL != "" {
		notify = notifier.NewAMQPPublisher(cfg.RabbitURL)
		go func() {
			if err := notifier.StartReceiptConsumer(cfg.RabbitURL); err != nil {
				log.Printf("receipt-consumer: %v", err)
			}
		}()
	}

	holds := hold.NewManager(seats, journal, cfg.HoldTTL)
	store := transaction.NewStore(holds, journal, notify, cat, cfg.CurrencyID)
	direct := payment.NewDirectProcessor(holds, store, cat)
	gateway := payment.NewGatewayProcessor(holds, store, cat)
	verifier := webhook.NewVerifier(cfg.WebhookSecret)
	reconciler := webhook.NewReconciler(store, events)

	// Background work: hold expiry sweep and stale gateway-pending cancel.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go holds.Run(ctx, cfg.SweepInterval)
	go store.Run(ctx, cfg.SweepInterval, cfg.GatewayPendingTTL)

	// Rate limiting is an abuse guard backed by Redis; when Redis is down
	// the middleware fails open and the engine keeps its own guarantees.
	rlCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient()
	if rdb == nil && rlCfg.Enabled {
		log.Printf("ratelimit: redis unavailable, limiting disabled")
	}
	limit := appmw.NewTokenBucket(rlCfg, rdb)
	webhookLimit := appmw.NewTokenBucket(rlCfg.ForWebhook(), rdb)

	e := echo.New()
	e.HideBanner = true

	sessionTTL := time.Duration(cfg.SessionTTLMin) * time.Minute
	sessionH := handler.NewSessionHandler(cfg.JWTSecret, sessionTTL)
	checkoutH := handler.NewCheckoutHandler(holds, seats, cat)
	paymentH := handler.NewPaymentHandler(holds, direct, gateway)
	webhookH := handler.NewWebhookHandler(verifier, reconciler)
	statusH := handler.NewStatusHandler(store, holds)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, sessionH, checkoutH, limit)
	router.RegisterCheckout(e, checkoutH, paymentH, statusH, cfg.JWTSecret, limit)
	router.RegisterWebhook(e, webhookH, webhookLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s hold-ttl=%s)", addr, cfg.Env, cfg.HoldTTL)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
