package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/proposalpilot-backend/internal/http"
	httpH "github.com/yungbote/proposalpilot-backend/internal/http/handlers"
	httpMW "github.com/yungbote/proposalpilot-backend/internal/http/middleware"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Proposal  *httpH.ProposalHandler
	Knowledge *httpH.KnowledgeHandler
	Classify  *httpH.ClassifyHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(map[string]httpH.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}),
		Proposal:  httpH.NewProposalHandler(log, svcs.Proposal),
		Knowledge: httpH.NewKnowledgeHandler(log, svcs.Proposal),
		Classify:  httpH.NewClassifyHandler(svcs.Proposal),
	}
}

func wireMiddleware(log *logger.Logger, svcs Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, svcs.Auth)}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		AllowedOrigins:   cfg.AllowedOrigins,
		AuthMiddleware:   middleware.Auth,
		ProposalHandler:  handlers.Proposal,
		KnowledgeHandler: handlers.Knowledge,
		ClassifyHandler:  handlers.Classify,
		HealthHandler:    handlers.Health,
	})
}
