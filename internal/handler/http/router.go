package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/config"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trace"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	cfg config.AppConfig,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	authHandler AuthHandler,
	attendanceHandler AttendanceHandler,
	proxyHandler ProxyHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "trackbase"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: false,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", trace.Header},
		ExposedHeaders:   []string{trace.Header, "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(trace.Middleware)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics(m))

	if cfg.StaticDir != "" {
		r.Use(chiMiddleware.Heartbeat("/ping"))
	} else {
		r.Use(chiMiddleware.Heartbeat("/"))
	}

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Legacy routes called by the static dashboard
	r.Post("/api/user/login", proxyHandler.Login)
	r.Post("/api/attendance/entry", proxyHandler.MarkEntry)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/stats", attendanceHandler.Stats)
			r.Get("/stats/export", attendanceHandler.Export)
			r.Get("/search", attendanceHandler.Search)
			r.Get("/session", attendanceHandler.Session)
			r.Post("/entry", attendanceHandler.MarkEntry)
			r.Post("/exit", attendanceHandler.MarkExit)
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
