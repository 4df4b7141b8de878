package router

import (
	"context"
	"database/sql"
	"net/http"

	_ "pet-adoption-marketplace/docs"
	"pet-adoption-marketplace/internal/adapters/metadata/petfinder"
	mem "pet-adoption-marketplace/internal/adapters/storage/memory"
	pg "pet-adoption-marketplace/internal/adapters/storage/postgres"
	"pet-adoption-marketplace/internal/config"
	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/domain/catalog"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/recommend"
	"pet-adoption-marketplace/internal/domain/threads"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/platform/notify"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config
	Logger logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: fuente de tipos/razas. Default: Petfinder con la config.
	Metadata catalog.Provider
}

type repos struct {
	pets         pets.Repository
	users        users.Repository
	applications applications.Repository
	threads      threads.Repository
}

// NewRouter arma el handler HTTP y devuelve la función que libera lo que
// quedó corriendo (listener de Postgres, workers de notificaciones).
func NewRouter(opts Options) (http.Handler, func(context.Context) error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	bg, stopBG := context.WithCancel(context.Background())

	var rp repos
	if opts.DB != nil {
		listener := pg.NewListener(opts.DB, log)
		go listener.Run(bg)

		rp = repos{
			pets:         pg.NewPetsRepo(opts.DB, listener),
			users:        pg.NewUsersRepo(opts.DB),
			applications: pg.NewApplicationsRepo(opts.DB, listener),
			threads:      pg.NewThreadsRepo(opts.DB, listener),
		}
		log.Info("storage: postgres", nil)
	} else {
		rp = repos{
			pets:         mem.NewPetRepo(mem.PetIndexes...),
			users:        mem.NewUserRepo(),
			applications: mem.NewApplicationRepo(mem.ApplicationIndexes...),
			threads:      mem.NewThreadRepo(mem.ThreadIndexes...),
		}
		log.Info("storage: in-memory", nil)
	}

	dispatcher := notify.New(notify.Config{
		Workers:     cfg.Notify.Workers,
		MaxAttempts: uint(cfg.Notify.Retries),
		Backoff:     cfg.Notify.Backoff,
	}, log)

	metadata := opts.Metadata
	if metadata == nil {
		pf, err := petfinder.NewClient(petfinder.Config{
			BaseURL:      cfg.Petfinder.BaseURL,
			ClientID:     cfg.Petfinder.ClientID,
			ClientSecret: cfg.Petfinder.ClientSecret,
			TTL:          cfg.Petfinder.CacheTTL,
			RPS:          cfg.Petfinder.RPS,
		}, log)
		switch {
		case err != nil:
			log.Warn("petfinder disabled, serving static catalog", map[string]any{"err": err})
		case !pf.IsConfigured():
			log.Info("petfinder not configured, serving static catalog", nil)
		default:
			metadata = pf
		}
	}

	// Services por módulo
	usersSvc := users.NewService(rp.users)
	petsSvc := pets.NewService(rp.pets, log).WithFeedLimits(cfg.FeedLimitAdopter, cfg.FeedLimitStaff)
	threadsSvc := threads.NewService(rp.threads, log)
	appsSvc := applications.NewService(rp.applications, petsSvc, usersSvc,
		applications.NewThreadNotifier(dispatcher, threadsSvc), log)
	recommendSvc := recommend.NewService(petsSvc, appsSvc, usersSvc, log).WithLimit(cfg.RecommendationLimit)
	catalogSvc := catalog.NewService(metadata, log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTP)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if cfg.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	pets.RegisterRoutes(r, petsSvc, usersSvc)
	recommend.RegisterRoutes(r, recommendSvc, usersSvc)
	applications.RegisterRoutes(r, appsSvc, usersSvc)
	threads.RegisterRoutes(r, threadsSvc, petsSvc, usersSvc)
	catalog.RegisterRoutes(r, catalogSvc)

	shutdown := func(ctx context.Context) error {
		stopBG()
		return dispatcher.Close(ctx)
	}
	return r, shutdown
}
