package wire

import (
	"context"
	"net/http"
	"time"

	"review-catalog/internal/adaptor"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/usecase"
	"review-catalog/pkg/database"
	"review-catalog/pkg/mailer"
	"review-catalog/pkg/metrics"
	"review-catalog/pkg/middleware"
	"review-catalog/pkg/security"
	"review-catalog/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Credentials bundles the stateless issuers built from the server secret.
type Credentials struct {
	Codes  usecase.CodeIssuer
	Tokens interface {
		usecase.TokenMinter
		middleware.TokenVerifier
	}
}

// NewCredentials derives one key per purpose from the app secret.
func NewCredentials(config *utils.Config) (*Credentials, error) {
	codeKey, err := security.DeriveKey(config.App.SecretKey, security.PurposeConfirmationCode)
	if err != nil {
		return nil, err
	}
	tokenKey, err := security.DeriveKey(config.App.SecretKey, security.PurposeAccessToken)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		Codes:  security.NewCodeGenerator(codeKey, config.Code.TTL),
		Tokens: security.NewTokenIssuer(tokenKey, config.JWT.Issuer, config.JWT.TTL()),
	}, nil
}

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router.
func Wiring(
	db database.PgxIface,
	repo *repository.Repository,
	creds *Credentials,
	mail mailer.Sender,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, creds.Codes, creds.Tokens, mail, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, db, repo, creds, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	db database.PgxIface,
	repo *repository.Repository,
	creds *Credentials,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.HTTP.AllowedOrigins))
	r.Use(middleware.Metrics)

	r.Get("/health", healthHandler(db, logger))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(creds.Tokens, repo.User, logger))

		wireAuth(r, handler.Auth, repo, config, logger)
		wireUser(r, handler.User, repo, config, logger)
		wireCatalog(r, handler.Category, handler.Genre, repo, config, logger)
		wireTitle(r, handler.Title, repo, config, logger)
		wireReview(r, handler.Review, handler.Comment, repo, config, logger)
	})

	return r
}

func healthHandler(db database.PgxIface, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
