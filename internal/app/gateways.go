package app

import (
	"fmt"

	"github.com/ecofinds/ecofinds-core/pkg/auth/session"
	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/db"
	"github.com/ecofinds/ecofinds-core/pkg/gateway"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/rest"
	"github.com/ecofinds/ecofinds-core/pkg/gateway/sqlgateway"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

// GatewayFactory opens a signed-out gateway for one client. persistence may be
// nil, in which case the gateway session lives only in memory.
type GatewayFactory func(persistence gateway.SessionPersistence) (gateway.Gateway, error)

type GatewayDeps struct {
	Config   *config.Config
	DB       *db.Client
	Sessions *session.Manager
	Logger   *logger.Logger
}

// NewGatewayFactory returns the factory for the configured gateway mode. The
// sql mode needs the database and the access session registry.
func NewGatewayFactory(deps GatewayDeps) (GatewayFactory, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := deps.Config
	switch cfg.Gateway.Mode {
	case config.GatewayModeREST:
		return func(persistence gateway.SessionPersistence) (gateway.Gateway, error) {
			return rest.New(rest.Config{
				URL:         cfg.Gateway.URL,
				AnonKey:     cfg.Gateway.AnonKey,
				Timeout:     cfg.Gateway.Timeout,
				Logger:      deps.Logger,
				Persistence: persistence,
			})
		}, nil
	case config.GatewayModeSQL:
		if deps.DB == nil {
			return nil, fmt.Errorf("db client is required in %s gateway mode", config.GatewayModeSQL)
		}
		if deps.Sessions == nil {
			return nil, fmt.Errorf("session manager is required in %s gateway mode", config.GatewayModeSQL)
		}
		return func(persistence gateway.SessionPersistence) (gateway.Gateway, error) {
			return sqlgateway.New(sqlgateway.Options{
				DB:          deps.DB,
				Sessions:    deps.Sessions,
				JWT:         cfg.JWT,
				Password:    cfg.Password,
				Logger:      deps.Logger,
				Persistence: persistence,
			})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported gateway mode %q", cfg.Gateway.Mode)
	}
}
