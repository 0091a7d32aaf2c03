package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"hairy-paws/docs"
	"hairy-paws/internal/adapters/messaging/logpub"
	mem "hairy-paws/internal/adapters/storage/memory"
	pg "hairy-paws/internal/adapters/storage/postgres"
	"hairy-paws/internal/domain/adoptions"
	"hairy-paws/internal/domain/animals"
	"hairy-paws/internal/domain/users"
	"hairy-paws/internal/middleware"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/metrics"
	"hairy-paws/internal/ports/auth"
	"hairy-paws/internal/ports/events"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// UploadsPath es donde se sirven las imágenes cuando no hay S3 configurado.
const UploadsPath = "/uploads"

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev: X-Debug-User-ID)
	TokenIssuer  auth.TokenIssuer  // nil => no se monta /auth

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger

	// Sin barras. Vacío => rutas en la raíz.
	APIPrefix  string
	AppName    string
	AppVersion string

	// Nil => lockout en memoria con LoginFailLimit/LoginFailTTL.
	LoginGuard     users.LoginGuard
	LoginFailLimit int
	LoginFailTTL   time.Duration

	// <= 0 desactiva el rate limit por IP del login.
	LoginRatePerSec float64
	LoginRateBurst  int

	// Nil => imágenes en memoria servidas bajo UploadsPath.
	ImageStore    animals.ImageStore
	MaxImageBytes int64

	// Nil => eventos al log.
	Publisher events.Publisher

	CORSOrigins []string

	// Si viene, se asegura esa cuenta ADMIN al construir el router.
	Admin *users.RegisterInput
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(metrics.InstrumentHandler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	var (
		userRepo     users.Repository
		animalRepo   animals.Repository
		adoptionRepo adoptions.Repository
	)
	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		animalRepo = pg.NewAnimalsRepo(opts.DB)
		adoptionRepo = pg.NewAdoptionsRepo(opts.DB)
	} else {
		store := mem.NewStore()
		userRepo = store.Users()
		animalRepo = store.Animals()
		adoptionRepo = store.Adoptions()
	}

	guard := opts.LoginGuard
	if guard == nil {
		guard = mem.NewLoginGuard(opts.LoginFailLimit, opts.LoginFailTTL)
	}

	images := opts.ImageStore
	if images == nil {
		memImages := mem.NewImageStore(UploadsPath)
		r.Handle(UploadsPath+"/*", http.StripPrefix(UploadsPath, memImages))
		images = memImages
	}

	pub := opts.Publisher
	if pub == nil {
		pub = logpub.New(log)
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, guard).WithLogger(log)
	animalsSvc := animals.NewService(animalRepo, images).WithMaxImageBytes(opts.MaxImageBytes)
	adoptionsSvc := adoptions.NewService(adoptionRepo, usersSvc, animalsSvc, pub, log)

	if opts.Admin != nil {
		if _, err := usersSvc.EnsureAdmin(context.Background(), *opts.Admin); err != nil {
			log.Error("admin bootstrap failed", map[string]any{"email": opts.Admin.Email, "err": err})
		}
	}

	var loginLimit func(http.Handler) http.Handler
	if opts.LoginRatePerSec > 0 {
		loginLimit = middleware.NewIPRateLimiter(opts.LoginRatePerSec, opts.LoginRateBurst).Middleware
	}

	prefix := strings.Trim(opts.APIPrefix, "/")
	base := ""
	if prefix != "" {
		base = "/" + prefix
	}

	// Rutas por módulo
	api := func(ar chi.Router) {
		mountDocs(ar, base, opts)
		if opts.TokenIssuer != nil {
			users.RegisterAuthRoutes(ar, usersSvc, opts.TokenIssuer, log, loginLimit)
		}
		users.RegisterRoutes(ar, usersSvc, log)
		animals.RegisterRoutes(ar, animalsSvc, log)
		adoptions.RegisterRoutes(ar, adoptionsSvc, log)
	}
	if base == "" {
		api(r)
	} else {
		r.Route(base, api)
	}

	return r
}

// mountDocs sirve Swagger UI en {base}/docs/ y el JSON crudo en {base}/docs-json.
// r ya está montado en base; base solo se usa para las URLs absolutas.
func mountDocs(r chi.Router, base string, opts Options) {
	if opts.AppName != "" {
		docs.SwaggerInfo.Title = opts.AppName + " API"
	}
	if opts.AppVersion != "" {
		docs.SwaggerInfo.Version = opts.AppVersion
	}
	docs.SwaggerInfo.BasePath = base
	if base == "" {
		docs.SwaggerInfo.BasePath = "/"
	}

	r.Get("/docs-json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "docs unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, base+"/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL(base+"/docs/doc.json"),
	))
}
