package router

import (
	"net/http"

	"petmatch/internal/adapters/auth/local"
	blobmem "petmatch/internal/adapters/blob/memory"
	cachemem "petmatch/internal/adapters/cache/memory"
	mem "petmatch/internal/adapters/storage/memory"
	"petmatch/internal/changefeed"
	"petmatch/internal/config"
	"petmatch/internal/domain/accounts"
	"petmatch/internal/domain/adoptions"
	"petmatch/internal/domain/pets"
	"petmatch/internal/live"
	"petmatch/internal/middleware"
	"petmatch/internal/platform/logger"
	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/blob"
	"petmatch/internal/ports/cache"
	"petmatch/internal/ports/idempotency"

	_ "petmatch/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options: todo lo que venga nil se reemplaza por la versión en memoria
// (modo dev y tests).
type Options struct {
	Config *config.Config
	Logger logger.Logger

	// nil => proveedor local sobre Credentials/Sessions/Failures.
	Provider auth.Provider

	Accounts    accounts.Repository
	Credentials auth.CredentialStore
	Pets        pets.Repository
	Adoptions   adoptions.Repository

	Blobs       blob.Store
	Idempotency idempotency.Store
	Sessions    cache.Sessions
	Failures    cache.Counter

	// nil => hub en proceso.
	Feed changefeed.Feed

	// Al cerrarse, las conexiones /live abiertas terminan.
	Shutdown <-chan struct{}
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	fillDefaults(&opts, cfg, log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recover(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", pets.IdempotencyHeader, middleware.DebugUserHeader},
		ExposedHeaders:   []string{chimw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services por módulo
	accountsSvc := accounts.NewService(opts.Accounts, opts.Provider, opts.Blobs, log.With(map[string]any{"module": "accounts"}))

	petsSvc := pets.NewService(opts.Pets, opts.Blobs, opts.Feed, opts.Idempotency, log.With(map[string]any{"module": "pets"}))
	petsSvc.SetIdempotencyTTL(cfg.IdempotencyTTL)
	petsSvc.SetShelterNames(accountsSvc)

	adoptionsSvc := adoptions.NewService(opts.Adoptions, petsSvc, accountsSvc, opts.Feed, opts.Idempotency, log.With(map[string]any{"module": "adoptions"}))
	adoptionsSvc.SetOrphanPolicy(adoptions.ParseOrphanPolicy(cfg.OrphanRequestPolicy))
	adoptionsSvc.SetIdempotencyTTL(cfg.IdempotencyTTL)

	petsSvc.AddDeleteObserver(adoptionsSvc)

	r.Use(middleware.AuthContext(opts.Provider, accountsSvc, cfg.AuthDebugHeader))

	r.Get("/health", healthHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	liveSrv := live.NewServer(opts.Feed, log.With(map[string]any{"module": "live"}), cfg.AllowedOrigins)
	liveSrv.StopOn(opts.Shutdown)

	// Rutas por módulo
	accounts.RegisterRoutes(r, accountsSvc, cfg.MaxUploadBytes)
	pets.RegisterRoutes(r, petsSvc, liveSrv, cfg.MaxUploadBytes)
	adoptions.RegisterRoutes(r, adoptionsSvc, liveSrv)

	return r
}

// healthHandler godoc
// @Summary Health check
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func fillDefaults(opts *Options, cfg *config.Config, log logger.Logger) {
	if opts.Accounts == nil || opts.Credentials == nil {
		repo := mem.NewAccountsRepo()
		if opts.Accounts == nil {
			opts.Accounts = repo
		}
		if opts.Credentials == nil {
			opts.Credentials = repo
		}
	}
	if opts.Pets == nil {
		opts.Pets = mem.NewPetRepo()
	}
	if opts.Adoptions == nil {
		opts.Adoptions = mem.NewAdoptionsRepo()
	}
	if opts.Blobs == nil {
		opts.Blobs = blobmem.NewStore("")
	}
	if opts.Idempotency == nil {
		opts.Idempotency = cachemem.NewIdempotency()
	}
	if opts.Sessions == nil {
		opts.Sessions = cachemem.NewSessions()
	}
	if opts.Failures == nil {
		opts.Failures = cachemem.NewCounter()
	}
	if opts.Feed == nil {
		opts.Feed = changefeed.NewHub()
	}
	if opts.Provider == nil {
		opts.Provider = local.NewProvider(opts.Credentials, opts.Sessions, opts.Failures, local.Config{
			SessionTTL:    cfg.SessionTTL,
			MaxFailures:   cfg.LoginMaxFailures,
			FailureWindow: cfg.LoginFailureWindow,
		}, log.With(map[string]any{"module": "auth"}))
	}
}
