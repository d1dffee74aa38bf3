// Package main implements the Vinsight API server: an HTTP boundary over the
// VIN decoding and presentation engine for transports that are not wired
// directly into the library.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/VinsightAI/vinsight-mvp/engine/bot"
	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/engine/profile"
	"github.com/VinsightAI/vinsight-mvp/engine/provider"
	"github.com/VinsightAI/vinsight-mvp/pkg/cache"
	"github.com/VinsightAI/vinsight-mvp/pkg/events"
	"github.com/VinsightAI/vinsight-mvp/pkg/metrics"
	"github.com/VinsightAI/vinsight-mvp/pkg/mid"
)

// Config holds all environment-based configuration, loaded once at start.
type Config struct {
	Port            string
	DefaultProvider string
	AutoDetailKey   string
	VINLookupKey    string
	ProviderTimeout time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	NATSURL         string
	CORSOrigin      string
	LogLevel        string
}

func loadConfig() Config {
	timeout, err := time.ParseDuration(envOr("PROVIDER_TIMEOUT", "15s"))
	if err != nil {
		timeout = 15 * time.Second
	}
	db, _ := strconv.Atoi(envOr("REDIS_DB", "0"))
	return Config{
		Port:            envOr("PORT", "8080"),
		DefaultProvider: envOr("DEFAULT_PROVIDER", "nhtsa"),
		AutoDetailKey:   os.Getenv("AUTODETAIL_API_KEY"),
		VINLookupKey:    os.Getenv("VINLOOKUP_API_KEY"),
		ProviderTimeout: timeout,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         db,
		NATSURL:         os.Getenv("NATS_URL"),
		CORSOrigin:      envOr("CORS_ORIGIN", "*"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel(s string) slog.Level {
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

func main() {
	cfg := loadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Cache backend (optional; degrades to always-miss) ---
	var store cache.Store = cache.Noop{}
	if cfg.RedisAddr != "" {
		redis, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without durable cache", "err", err)
		} else {
			defer redis.Close()
			store = redis
		}
	}

	// --- Analytics events (optional) ---
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("vinsight-api"))
		if err != nil {
			logger.Warn("nats unavailable, events disabled", "err", err)
		} else {
			defer nc.Drain()
			pub = events.NewPublisher(nc, logger)
		}
	}

	// --- Providers ---
	providers := []provider.Provider{provider.NewNHTSA(cfg.ProviderTimeout, logger)}
	if cfg.AutoDetailKey != "" {
		providers = append(providers, provider.NewAutoDetail(cfg.AutoDetailKey, cfg.ProviderTimeout, logger))
	}
	if cfg.VINLookupKey != "" {
		providers = append(providers, provider.NewVINLookup(cfg.VINLookupKey, cfg.ProviderTimeout, logger))
	}

	reg := metrics.New()
	facade := provider.NewFacade(store, domain.ProviderName(cfg.DefaultProvider), logger, reg, providers...)
	tracker := profile.NewTracker(store, logger)
	svc := bot.New(facade, tracker, pub, logger, reg)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/decode", handleDecode(svc, logger))
	mux.HandleFunc("POST /api/action", handleAction(svc, logger))
	mux.HandleFunc("GET /api/users/{id}/context", handleSnapshot(svc))
	mux.HandleFunc("POST /api/keys/validate", handleValidateKey(svc))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("vinsight-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "providers", len(providers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// DecodeRequest is the JSON body for POST /api/decode.
type DecodeRequest struct {
	VIN    string `json:"vin"`
	UserID string `json:"user_id"`
	Level  int    `json:"level,omitempty"`
}

// ActionRequest is the JSON body for POST /api/action.
type ActionRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// ValidateKeyRequest is the JSON body for POST /api/keys/validate.
type ValidateKeyRequest struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

func handleDecode(svc *bot.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DecodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.VIN == "" || req.UserID == "" {
			writeErrorJSON(w, http.StatusBadRequest, "vin and user_id are required")
			return
		}

		resp, err := svc.DecodeAndPresent(r.Context(), req.UserID, req.VIN, domain.DisclosureLevel(req.Level))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, resp)
	}
}

func handleAction(svc *bot.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Token == "" || req.UserID == "" {
			writeErrorJSON(w, http.StatusBadRequest, "token and user_id are required")
			return
		}

		resp, err := svc.HandleAction(r.Context(), req.UserID, req.Token)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, resp)
	}
}

func handleSnapshot(svc *bot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("id")
		if userID == "" {
			writeErrorJSON(w, http.StatusBadRequest, "user id is required")
			return
		}
		writeJSON(w, svc.UserSnapshot(r.Context(), userID))
	}
}

func handleValidateKey(svc *bot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		valid := svc.ValidateAPIKey(domain.ProviderName(req.Provider), req.Key)
		writeJSON(w, map[string]bool{"valid": valid})
	}
}

// writeServiceError maps the error taxonomy onto HTTP. Validation problems
// are user noise, not server errors; provider failures carry the user hint
// and log full detail server-side.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeErrorJSON(w, http.StatusBadRequest, domain.UserHint(err))
		return
	}
	logger.Error("decode failed", "err", err)
	writeErrorJSON(w, http.StatusBadGateway, domain.UserHint(err))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
