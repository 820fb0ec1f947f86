package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/config"
	appHTTP "github.com/cmlabs-hris/stamp-correction/internal/handler/http"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/jwt"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/sse"
	"github.com/cmlabs-hris/stamp-correction/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/stamp-correction/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/stamp-correction/internal/service/correction"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "stamp-correction"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	loc := cfg.Location()

	correctionRequestRepo := postgresql.NewCorrectionRequestRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	txRunner := postgresql.NewTxRunner(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.AccessTokenTTL())
	hub := sse.NewHub()

	workflowSvc := correctionService.NewWorkflowService(
		txRunner,
		correctionRequestRepo,
		attendanceRepo,
		employeeRepo,
		hub,
		correctionService.Config{
			Location:        loc,
			BulkMaxIDs:      cfg.Correction.BulkMaxIDs,
			BulkConcurrency: cfg.Correction.BulkConcurrency,
			BulkItemTimeout: cfg.Correction.BulkItemTimeout,
		},
	)
	querySvc := correctionService.NewQueryService(correctionRequestRepo, employeeRepo)

	startTime, err := attendanceService.ParseStartTime(cfg.Schedule.DefaultStartTime)
	if err != nil {
		return fmt.Errorf("invalid default schedule start: %w", err)
	}
	summarySvc := attendanceService.NewSummaryService(attendanceRepo, employeeRepo, attendanceService.SummaryPolicy{
		BreakMinutes:   cfg.Schedule.DefaultBreakMinutes,
		StartTime:      startTime,
		ThresholdHours: cfg.Schedule.OvertimeThresholdHours,
		Location:       loc,
	})

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewCorrectionHandler(workflowSvc, querySvc),
		appHTTP.NewAttendanceHandler(summarySvc),
		appHTTP.NewEventHandler(hub, JWTService),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
