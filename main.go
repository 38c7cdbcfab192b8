package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"gleam/internal/auth"
	"gleam/internal/cache"
	"gleam/internal/client"
	"gleam/internal/config"
	"gleam/internal/relay"
)

// app holds everything the handlers need.
type app struct {
	cfg      *config.Config
	client   *client.Client
	sessions *auth.SessionStore
	csrf     *auth.CSRFManager
	publish  *auth.Limiter
	login    *auth.Limiter
}

// limitBody wraps an HTTP handler to limit request body size
func limitBody(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// securityHeaders adds security headers to every response
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Images and media come from anywhere; scripts only from here.
		csp := "default-src 'self'; " +
			"img-src * data:; " +
			"media-src *; " +
			"frame-src https://www.youtube.com https://www.youtube-nocookie.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'"
		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (a *app) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLoggingMiddleware, metricsMiddleware, securityHeaders, a.sessionMiddleware)

	maxBody := a.cfg.Server.MaxBodyBytes

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	r.HandleFunc("/", a.homeHandler).Methods(http.MethodGet)
	r.HandleFunc("/explore", a.exploreHandler).Methods(http.MethodGet)
	r.HandleFunc("/videos", a.videosHandler).Methods(http.MethodGet)
	r.HandleFunc("/t/{tag}", a.hashtagHandler).Methods(http.MethodGet)
	r.HandleFunc("/post/{id:[0-9a-f]{64}}", a.postHandler).Methods(http.MethodGet)
	r.HandleFunc("/profile", a.ownProfileHandler).Methods(http.MethodGet)
	r.HandleFunc("/profile/{identifier}", a.profileHandler).Methods(http.MethodGet)
	r.HandleFunc("/quote/{identifier}", a.quoteHandler).Methods(http.MethodGet)

	r.HandleFunc("/login", a.loginPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", limitBody(a.loginSubmitHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/logout", limitBody(a.logoutHandler, maxBody)).Methods(http.MethodPost)

	r.HandleFunc("/post", limitBody(a.postNoteHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/reply", limitBody(a.replyHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/like", limitBody(a.likeHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/repost", limitBody(a.repostHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/follow", limitBody(a.followHandler, maxBody)).Methods(http.MethodPost)
	r.HandleFunc("/unfollow", limitBody(a.unfollowHandler, maxBody)).Methods(http.MethodPost)

	// Registered last so named routes win.
	r.HandleFunc("/{nip19}", a.nip19Handler).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(a.notFoundHandler)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	config.Set(cfg)
	InitLogger(cfg.LogLevel)
	initTemplates()
	secureCookies = cfg.Server.SecureCookies
	trustedProxyCount = cfg.Server.TrustedProxyCount

	backend, backendType, err := cache.Open(cfg.RedisURL, cfg.Cache.Prefix, cfg.Cache.MaxEntries)
	if err != nil {
		slog.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	keys, err := auth.DeriveKeys(cfg.SessionSecret)
	if err != nil {
		slog.Error("failed to derive session keys", "error", err)
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	sealer, err := auth.NewSealer(keys.Seal)
	if err != nil {
		slog.Error("failed to create sealer", "error", err)
		os.Exit(1)
	}

	pool := relay.NewPool(relay.Options{Logger: slog.Default()})
	defer pool.Close()

	a := &app{
		cfg:      cfg,
		client:   client.New(pool, pool, cfg, backend, slog.Default()),
		sessions: auth.NewSessionStore(backend, sealer, cfg.Cache.SessionTTL),
		csrf:     auth.NewCSRFManager(keys.CSRF),
		publish:  auth.NewLimiter(cfg.RateLimit.PublishPerMinute, cfg.RateLimit.PublishBurst),
		login:    auth.NewLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port, "cache", backendType, "relays", len(cfg.Relays.Default))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
