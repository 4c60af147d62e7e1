package di

import (
	"context"

	"carddeps/application/ports"
	"carddeps/application/queries"
	"carddeps/application/services"
	"carddeps/infrastructure/config"
	"carddeps/infrastructure/observability"
	"carddeps/pkg/auth"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Store      ports.RelationStore
	Items      ports.ItemRegistry
	Graph      *services.DependencyGraphService
	Reconciler *services.Reconciler
	Settings   *services.SettingsService
	Sessions   *services.SessionManager
	Summaries  *queries.SummaryService
	Candidates *queries.CandidateService
	Auth       *auth.JWTValidator
}

// Ready pings the store when it supports health checks
func (c *Container) Ready(ctx context.Context) error {
	if hc, ok := c.Store.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
