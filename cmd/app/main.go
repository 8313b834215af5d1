package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/instapay/payment-core/pkg/auth"
	"github.com/instapay/payment-core/pkg/config"
	"github.com/instapay/payment-core/pkg/events"
	"github.com/instapay/payment-core/pkg/handlers"
	"github.com/instapay/payment-core/pkg/ledger"
	"github.com/instapay/payment-core/pkg/models"
	"github.com/instapay/payment-core/pkg/security"
	"github.com/instapay/payment-core/pkg/storage/memory"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	store := memory.NewStore()
	limiter := security.NewLoginLimiter(cfg.MaxLoginAttempts, cfg.LockoutDuration())
	sessions := security.NewSessionManager([]byte(cfg.SessionSigningKey), cfg.SessionTimeout(), cfg.MonitorInterval())
	broadcaster := events.NewBroadcaster()

	svc := auth.NewService(store, limiter, sessions, broadcaster, auth.Config{
		StartingBalance: decimal.NewFromFloat(cfg.StartingBalance),
		Simulator: ledger.SimulatorConfig{
			TickInterval:     cfg.SimulatorTick(),
			EventProbability: cfg.SimProbability,
		},
	}, logger)

	ctx := context.Background()
	if err := seedDemoAccounts(ctx, svc); err != nil {
		log.Fatalf("failed to seed demo accounts: %v", err)
	}

	router := handlers.NewRouter(svc, broadcaster, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	logger.Info("shutting down")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(timeoutCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	svc.Close(context.Background())
}

// seedDemoAccounts installs the demo identities and some transaction history
// so the client has data to show on first login.
func seedDemoAccounts(ctx context.Context, svc *auth.Service) error {
	demos := []models.RegistrationInput{
		{
			Email:           "john.doe@example.com",
			Password:        "Password123!",
			FirstName:       "John",
			LastName:        "Doe",
			CellNumber:      "0821234567",
			IdentityNumber:  "8001015009087",
			PhysicalAddress: "12 Long Street, Cape Town",
		},
		{
			Email:           "jane.smith@example.com",
			Password:        "Password123!",
			FirstName:       "Jane",
			LastName:        "Smith",
			CellNumber:      "0761234567",
			IdentityNumber:  "9001014800089",
			PhysicalAddress: "45 Oak Avenue, Johannesburg",
		},
	}

	for _, input := range demos {
		if _, err := svc.Register(ctx, input); err != nil {
			return err
		}
	}

	now := time.Now()
	history := []models.Transaction{
		{
			ID:          1,
			Kind:        models.CREDIT,
			Amount:      decimal.NewFromInt(2500),
			Description: "Salary Deposit",
			Reference:   "TXN001",
			Status:      models.COMPLETED,
			OccurredAt:  now.Add(-72 * time.Hour),
		},
		{
			ID:          2,
			Kind:        models.DEBIT,
			Amount:      decimal.RequireFromString("350.75"),
			Description: "Grocery Store",
			Reference:   "TXN002",
			Status:      models.COMPLETED,
			OccurredAt:  now.Add(-48 * time.Hour),
		},
		{
			ID:          3,
			Kind:        models.DEBIT,
			Amount:      decimal.RequireFromString("89.99"),
			Description: "Online Subscription",
			Reference:   "TXN003",
			Status:      models.COMPLETED,
			OccurredAt:  now.Add(-24 * time.Hour),
		},
	}
	return svc.SeedLedger(ctx, "john.doe@example.com", history)
}
