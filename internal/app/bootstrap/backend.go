package bootstrap

import (
	"context"
	"fmt"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
	"github.com/ateliercarvalho/atelier/internal/auth"
	"github.com/ateliercarvalho/atelier/internal/booking"
	"github.com/ateliercarvalho/atelier/internal/catalog"
	appconfig "github.com/ateliercarvalho/atelier/internal/config"
	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// CustomerAuth is what the website's sign-in needs from a provider.
type CustomerAuth interface {
	session.Authenticator
	session.Registrar
	Profile(ctx context.Context, token string) (*session.User, error)
}

// BuildBackend picks the booking backend once for the process: the
// in-memory mock when UseMock is set, the atelier API otherwise.
func BuildBackend(cfg *appconfig.Config, m *metrics.AtelierMetrics, logger *logging.Logger) booking.Backend {
	if cfg.UseMock {
		logger.Info("using mock booking backend")
		return booking.NewMockBackend(logger, booking.WithLocation(cfg.Location()))
	}
	return booking.NewRemoteBackend(CustomerClient(cfg, m, logger), catalog.DefaultCatalog(), logger)
}

// CustomerClient talks to the public atelier API with the customer's token.
func CustomerClient(cfg *appconfig.Config, m *metrics.AtelierMetrics, logger *logging.Logger) *apiclient.Client {
	return apiclient.New(cfg.APIBaseURL,
		apiclient.WithName("atelier"),
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(m),
		apiclient.WithTokenSource(session.ContextTokens(session.CustomerDomain)),
		apiclient.WithUnauthorizedHandler(session.ExpireFromContext(session.CustomerDomain)),
	)
}

// AdminClient talks to the back-office API with the staff token.
func AdminClient(cfg *appconfig.Config, m *metrics.AtelierMetrics, logger *logging.Logger) *apiclient.Client {
	return apiclient.New(cfg.AdminAPIBaseURL,
		apiclient.WithName("admin"),
		apiclient.WithTimeout(cfg.AdminAPITimeout),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(m),
		apiclient.WithTokenSource(session.ContextTokens(session.AdminDomain)),
		apiclient.WithUnauthorizedHandler(session.ExpireFromContext(session.AdminDomain)),
	)
}

// BuildCustomerAuth follows the backend choice: offline mode signs tokens
// locally, otherwise the atelier API authenticates.
func BuildCustomerAuth(cfg *appconfig.Config, m *metrics.AtelierMetrics, logger *logging.Logger) (CustomerAuth, error) {
	if cfg.UseMock {
		mock, err := auth.NewMockCustomerAuth(cfg.MockTokenSecret, auth.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: mock customer auth: %w", err)
		}
		return mock, nil
	}
	return auth.NewRemoteCustomerAuth(CustomerClient(cfg, m, logger)), nil
}
