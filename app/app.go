package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/auth/jwt"
	"github.com/william251082/fileupload/authz"
	"github.com/william251082/fileupload/bootstrap"
	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/database/schema"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/reference/api"
	"github.com/william251082/fileupload/server"
	"github.com/william251082/fileupload/server/middleware"
	"github.com/william251082/fileupload/storage"

	// Storage providers register their factories on import.
	_ "github.com/william251082/fileupload/storage/local"
	_ "github.com/william251082/fileupload/storage/s3"
)

// APIPrefix is the route group every authenticated endpoint lives under.
const APIPrefix = "/api"

// DevSubject is the caller identity attached to requests when authentication
// is disabled.
const DevSubject = "dev"

// Service is the assembled process. The domain fields are populated during
// the configure phase, once the database and storage are up.
type Service struct {
	App *bootstrap.App[*Config]

	Server     *server.Server
	References *reference.Service
	Articles   *article.Store

	observability *observability.Component
	database      *database.Component
	storage       *storage.Component
}

// New validates cfg, registers the infrastructure components and schedules
// the domain wiring. Nothing is started until Run or RunTask.
func New(cfg *Config, opts ...bootstrap.Option) (*Service, error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	obs, err := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, a.Logger)
	if err != nil {
		return nil, err
	}
	migrations, err := schema.Dir(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	s := &Service{
		App:           a,
		observability: obs,
		database:      database.NewComponent(cfg.Database, a.Logger).WithMigrations(schema.FS(), migrations),
		storage:       storage.NewComponent(cfg.Storage, a.Logger),
	}
	if err := a.RegisterComponent(s.observability); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(s.database); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(s.storage); err != nil {
		return nil, err
	}

	a.OnConfigure(s.configure)
	return s, nil
}

// Run serves until SIGINT, SIGTERM or ctx cancellation.
func (s *Service) Run(ctx context.Context) error {
	return s.App.Run(ctx)
}

func (s *Service) configure(ctx context.Context, a *bootstrap.App[*Config]) error {
	cfg := a.Cfg
	db := s.database.DB()
	backend := s.storage.Backend()

	if dir := cfg.References.StagingDir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("staging dir: %w", err)
		}
	}

	s.Articles = article.NewStore(db)
	refs, err := reference.NewService(cfg.References, cfg.Download, db, backend, s.Articles, a.Logger,
		reference.WithMeterProvider(s.observability.MeterProvider()))
	if err != nil {
		return err
	}
	s.References = refs
	images := article.NewImageUploader(cfg.Articles, s.Articles, backend, a.Logger)
	policy := article.NewPolicy(authz.NewMapChecker(cfg.Auth.Roles))

	authenticate, err := authMiddleware(cfg.Auth)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, a.Logger)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, a.Components.HealthAll, s.observability.MetricsHandler())
	if cfg.Storage.Provider == storage.ProviderLocal {
		mount := article.PublicMount + "/" + article.ImagePrefix + "/"
		srv.Handle(mount, http.StripPrefix(article.PublicMount, http.FileServer(http.Dir(cfg.Storage.BasePath))))
		a.Summary.TrackRoute(http.MethodGet, mount, "static")
	}

	handler := api.NewHandler(api.Options{
		References:       refs,
		Articles:         s.Articles,
		Images:           images,
		Policy:           policy,
		StagingDir:       cfg.References.StagingDir,
		UploadMiddleware: []gin.HandlerFunc{middleware.RateLimit(cfg.Server.RateLimit)},
	}, a.Logger)
	handler.Register(srv.GinEngine().Group(APIPrefix, authenticate))
	s.Server = srv

	a.Summary.TrackBusinessComponent("references", "service", "database", "storage/"+reference.StoragePrefix)
	a.Summary.TrackBusinessComponent("article-images", "service", "database", "storage/"+article.ImagePrefix)
	for _, r := range srv.GinEngine().Routes() {
		a.Summary.TrackRoute(r.Method, r.Path, r.Handler)
	}

	a.Logger.Info("Domain wired", map[string]interface{}{
		"auth":              cfg.Auth.Describe(),
		"download_strategy": refs.Gateway().Strategy(),
	})
	return a.StartComponent(ctx, server.NewComponent(srv))
}

// authMiddleware verifies bearer tokens, or attaches a fixed admin identity
// when authentication is disabled.
func authMiddleware(cfg auth.Config) (gin.HandlerFunc, error) {
	if !cfg.Enabled {
		return middleware.StaticClaims(DevClaims()), nil
	}
	tokens, err := NewTokenService(cfg)
	if err != nil {
		return nil, err
	}
	return middleware.Auth(tokens), nil
}

// NewTokenService builds the JWT service for the service's claims type.
func NewTokenService(cfg auth.Config) (*jwt.Service[*auth.Claims], error) {
	return jwt.NewService(cfg.JWT, func() *auth.Claims { return &auth.Claims{} })
}

// DevClaims is the identity used when authentication is disabled.
func DevClaims() *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: DevSubject},
		Name:             "Developer",
		Roles:            []string{"admin"},
	}
}
