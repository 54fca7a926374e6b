package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/config"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/trackbase-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/repository/postgresql"
	trackbaseRepo "github.com/cmlabs-hris/trackbase-backend-go/internal/repository/trackbase"
	attendanceService "github.com/cmlabs-hris/trackbase-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/trackbase-backend-go/internal/service/auth"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(slog.String("app", "trackbase")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid timezone:", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := trackbase.NewClient(cfg.Trackbase, m)
	aggregator := attendance.NewAggregator(loc)

	var attendanceRepo attendance.AttendanceRepository
	switch cfg.Source.Driver {
	case config.SourcePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			log.Fatal("Error connecting to database:", err)
		}
		defer db.Close()
		attendanceRepo = postgresql.NewAttendanceRepository(db)
	default:
		attendanceRepo = trackbaseRepo.NewAttendanceRepository(client)
	}
	recorder := trackbaseRepo.NewAttendanceRecorder(client)
	userRepo := trackbaseRepo.NewUserRepository(client)

	attendanceSvc := attendanceService.NewAttendanceService(aggregator, attendanceRepo, recorder, userRepo, m)
	authService := serviceAuth.NewAuthService(userRepo, attendanceSvc)

	authHandler := appHTTP.NewAuthHandler(authService)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, loc)
	proxyHandler := appHTTP.NewProxyHandler(client)

	router := appHTTP.NewRouter(cfg.App, reg, m, authHandler, attendanceHandler, proxyHandler)

	scheduler := cron.NewScheduler(ctx)
	jobs := cron.NewAttendanceJobs(attendanceRepo, aggregator, m)
	jobs.RegisterJobs(scheduler, cfg.Cron.StaleSessionInterval)
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+srv.Addr, "source", cfg.Source.Driver, "upstream", cfg.Trackbase.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
