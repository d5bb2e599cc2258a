package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/admin"
	"github.com/noah-isme/catalogo-mayorista/internal/app"
	"github.com/noah-isme/catalogo-mayorista/internal/audit"
	"github.com/noah-isme/catalogo-mayorista/internal/auth"
	"github.com/noah-isme/catalogo-mayorista/internal/branding"
	"github.com/noah-isme/catalogo-mayorista/internal/cart"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/config"
	"github.com/noah-isme/catalogo-mayorista/internal/health"
	"github.com/noah-isme/catalogo-mayorista/internal/media"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
	"github.com/noah-isme/catalogo-mayorista/internal/order"
	"github.com/noah-isme/catalogo-mayorista/internal/queue"
	"github.com/noah-isme/catalogo-mayorista/internal/ratelimit"
	"github.com/noah-isme/catalogo-mayorista/internal/security"
)

const (
	serviceName       = "catalogo-api"
	accessCookieName  = "access_token"
	cartSweepInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(serviceName, cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := true
	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   serviceName,
		Endpoint:      cfg.TracingEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		tracingEnabled = false
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	deps, err := app.New(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	catalogService, err := deps.CatalogService()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	if _, err := catalogService.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial catalog load failed, serving an empty catalog until the next refresh")
	}
	go catalogService.Run(ctx, cfg.CatalogRefreshInterval)
	go func() {
		bc := queue.Broadcast{Client: deps.Redis}
		if err := bc.Listen(ctx, catalogService, logger, nil); err != nil {
			logger.Error().Err(err).Msg("catalog broadcast listener stopped")
		}
	}()
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	var cartStore cart.Store
	switch cfg.CartStore {
	case config.CartStoreMemory:
		mem := cart.NewMemoryStore(cfg.CartTTL)
		go mem.RunSweeper(ctx, cartSweepInterval)
		cartStore = mem
	default:
		cartStore = cart.NewRedisStore(deps.Redis, cfg.CartTTL)
	}
	cartService := &cart.Service{Store: cartStore, Catalog: catalogService, Logger: logger}
	session := cart.SessionOptions{
		TTL:      cfg.CartTTL,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}
	cartHandler := &cart.Handler{Svc: cartService, Session: session}
	orderHandler := &order.Handler{
		Cart:      cartService,
		Session:   session,
		Formatter: order.NewFormatter(order.Options{Brand: cfg.OrderBrandName}),
		Phone:     cfg.OrderWhatsAppPhone,
		Logger:    logger,
	}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, ScopeHeader: cart.SessionHeader}

	publicLimit, err := ratelimit.NewPublic(deps.LimiterStore, cfg.PublicRateLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise public rate limiter")
	}
	jsonBody := security.BodyLimit{Max: security.DefaultJSONBody}.Middleware
	uploadBody := security.BodyLimit{Max: uploadLimit(cfg)}.Middleware

	uploader := &media.Uploader{Store: deps.Objects}
	var brandingHandler *branding.Handler
	if deps.Queries != nil {
		brandingHandler = &branding.Handler{Svc: &branding.Service{
			Queries:  deps.Queries,
			Logos:    uploader,
			Validate: deps.Validator,
			Logger:   logger,
		}}
	}

	var httpMetrics *obs.HTTPMetrics
	if deps.Registry != nil {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), deps.Registry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.Tracing(serviceName))
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, SessionHeader: cart.SessionHeader}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.HSTSEnabled, HSTSMaxAge: 31536000}.Middleware)

	if deps.Registry != nil {
		r.Handle("/metrics", obs.MetricsHandler(deps.Registry))
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{Probes: deps.Probes(), Timeout: cfg.ReadyTimeout}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(publicLimit)

		v.Group(func(pub chi.Router) {
			pub.Use(jsonBody)
			pub.Get("/products", catalogHandler.Products)
			pub.Get("/products/{id}", catalogHandler.Product)
			pub.Get("/facets", catalogHandler.Facets)
			if brandingHandler != nil {
				pub.Get("/branding/{catalogID}", brandingHandler.Get)
			}

			pub.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Get("/quote", cartHandler.Quote)
				c.Get("/order", orderHandler.Export)
				c.Group(func(g chi.Router) {
					g.Use(idem.Middleware)
					g.Post("/items", cartHandler.AddItem)
					g.Patch("/items/{productID}", cartHandler.UpdateItem)
					g.Delete("/items/{productID}", cartHandler.RemoveItem)
					g.Delete("/", cartHandler.Clear)
				})
			})
		})

		if !cfg.AdminEnabled() {
			logger.Info().Msg("admin surface disabled: DATABASE_URL, ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required")
			return
		}
		v.Route("/admin", func(a chi.Router) {
			mountAdmin(a, cfg, deps, logger, adminRoutes{
				catalog:  catalogHandler,
				branding: brandingHandler,
				uploader: uploader,
				json:     jsonBody,
				upload:   uploadBody,
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

type adminRoutes struct {
	catalog  *catalog.Handler
	branding *branding.Handler
	uploader *media.Uploader
	json     func(http.Handler) http.Handler
	upload   func(http.Handler) http.Handler
}

func mountAdmin(a chi.Router, cfg *config.Config, deps *app.Dependencies, logger zerolog.Logger, h adminRoutes) {
	authService, err := auth.NewService(auth.Config{
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
		Secret:            cfg.JWTSecret,
		AccessTokenTTL:    cfg.AccessTokenTTL,
		Issuer:            cfg.JWTIssuer,
		Audience:          cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:          authService,
		Attempts:         &ratelimit.SlidingWindow{Client: deps.Redis, Prefix: "login:"},
		MaxAttempts:      cfg.LoginRateLimitMax,
		Window:           cfg.LoginRateLimitWindow,
		Logger:           logger,
		AccessCookieName: accessCookieName,
		CookieDomain:     cfg.CookieDomain,
		CookieSecure:     cfg.CookieSecure,
		CookieSameSite:   cfg.CookieSameSite,
	}
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: accessCookieName}
	csrf := security.CSRF{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	adminService := &admin.Service{Queries: deps.Queries, Validate: deps.Validator, Logger: logger}
	if deps.Sheets != nil {
		adminService.Sheets = deps.Sheets
	}
	adminHandler := &admin.Handler{
		Svc:          adminService,
		Uploader:     h.uploader,
		Jobs:         deps.Jobs(),
		Logger:       logger,
		MaxFiles:     cfg.UploadMaxFiles,
		MaxFileBytes: cfg.UploadMaxFileBytes,
	}
	queueHandler := &queue.AdminHandler{Inspector: deps.Inspector, Queue: cfg.QueueName, Logger: logger}

	trail := audit.Service{Enabled: cfg.AuditEnabled && deps.Queries != nil}
	if trail.Enabled {
		trail.Store = deps.Queries
	}
	recorder := audit.HTTPRecorder{Service: trail, OnError: func(err error) {
		logger.Error().Err(err).Msg("record audit entry")
	}}
	audited := func(action, resource, idParam string) func(http.Handler) http.Handler {
		return recorder.Middleware(audit.HTTPConfig{Action: action, ResourceType: resource, ResourceIDParam: idParam})
	}

	a.With(h.json).Get("/csrf-token", csrf.TokenHandler)
	a.With(h.json).Post("/login", authHandler.Login)

	a.Group(func(p chi.Router) {
		p.Use(authMiddleware.RequireAdmin)
		if cfg.CSRFEnabled {
			p.Use(csrf.Middleware)
		}

		p.Group(func(j chi.Router) {
			j.Use(h.json)
			j.Get("/me", authHandler.Me)
			j.Post("/logout", authHandler.Logout)

			j.Get("/products", adminHandler.List)
			j.With(audited("product.create", "product", "")).Post("/products", adminHandler.Create)
			j.Get("/products/{id}", adminHandler.Get)
			j.With(audited("product.update", "product", "id")).Put("/products/{id}", adminHandler.Update)
			j.With(audited("product.delete", "product", "id")).Delete("/products/{id}", adminHandler.Delete)

			j.Get("/export/json", adminHandler.ExportJSON)
			j.Get("/export/csv", adminHandler.ExportCSV)
			j.With(audited("catalog.import", "catalog", "")).Post("/import/sheets", adminHandler.ImportSheets)
			j.With(audited("catalog.refresh", "catalog", "")).Post("/catalog/refresh", h.catalog.Refresh)

			j.Get("/queue/stats", queueHandler.Stats)
			j.Get("/queue/archived", queueHandler.ListArchived)
			j.With(audited("task.run", "task", "taskID")).Post("/queue/archived/{taskID}/run", queueHandler.RunArchived)
			j.With(audited("task.delete", "task", "taskID")).Delete("/queue/archived/{taskID}", queueHandler.DeleteArchived)

			if trail.Enabled {
				j.Get("/audit", audit.Handler{Store: deps.Queries}.List)
			}
		})

		p.Group(func(u chi.Router) {
			u.Use(h.upload)
			u.With(audited("product.images", "product", "id")).Post("/products/{id}/images", adminHandler.UploadImages)
			if h.branding != nil {
				u.With(audited("branding.update", "branding", "catalogID")).Put("/branding/{catalogID}", h.branding.Update)
			}
		})
	})
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return http.StripPrefix("/debug/pprof", mux)
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// uploadLimit covers a full multipart batch plus form overhead.
func uploadLimit(cfg *config.Config) int64 {
	if cfg.UploadMaxFiles <= 0 || cfg.UploadMaxFileBytes <= 0 {
		return security.DefaultUploadBody
	}
	return int64(cfg.UploadMaxFiles)*cfg.UploadMaxFileBytes + 1<<20
}
