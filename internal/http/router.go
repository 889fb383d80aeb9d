package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/proposalpilot-backend/internal/http/handlers"
	httpMW "github.com/yungbote/proposalpilot-backend/internal/http/middleware"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	ProposalHandler  *httpH.ProposalHandler
	KnowledgeHandler *httpH.KnowledgeHandler
	ClassifyHandler  *httpH.ClassifyHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "proposalpilot"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Proposals
		if cfg.ProposalHandler != nil {
			protected.POST("/proposals", cfg.ProposalHandler.CreateProposal)
			protected.POST("/proposals/batch", cfg.ProposalHandler.IngestBatch)
			protected.GET("/proposals", cfg.ProposalHandler.ListProposals)
			protected.GET("/proposals/:id", cfg.ProposalHandler.GetProposal)
			protected.DELETE("/proposals/:id", cfg.ProposalHandler.DeleteProposal)
			protected.POST("/proposals/:id/reextract", cfg.ProposalHandler.Reextract)
			protected.POST("/proposals/:id/generate-all", cfg.ProposalHandler.GenerateAll)
			protected.POST("/proposals/:id/questions/:qid/generate", cfg.ProposalHandler.GenerateQuestion)
			protected.PATCH("/proposals/:id/questions/:qid", cfg.ProposalHandler.UpdateQuestion)
			protected.POST("/proposals/:id/questions/:qid/improve", cfg.ProposalHandler.ImproveQuestion)
		}

		// Knowledge base
		if cfg.KnowledgeHandler != nil {
			protected.POST("/knowledge/search", cfg.KnowledgeHandler.Search)
			protected.POST("/knowledge", cfg.KnowledgeHandler.Create)
		}

		if cfg.ClassifyHandler != nil {
			protected.POST("/classify", cfg.ClassifyHandler.Classify)
		}
	}

	return r
}
