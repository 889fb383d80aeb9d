package app

import (
	"github.com/yungbote/proposalpilot-backend/internal/data/repos"
	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/extract"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/generate"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/segment"
	"github.com/yungbote/proposalpilot-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Proposal services.ProposalService
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, err
	}

	var ocr extract.OCR
	if clients.OCR != nil {
		ocr = clients.OCR
	}
	var invoker proposal.ModelInvoker
	if clients.Model != nil {
		invoker = clients.Model
	}

	proposalSvc := services.NewProposalService(log, services.ProposalServiceDeps{
		Proposals: reposet.Proposals,
		Knowledge: reposet.Knowledge,
		Blobs:     clients.Blobs,
		Bus:       clients.Bus,
		Extractor: extract.New(log, ocr),
		Segmenter: segment.New(),
		Retriever: retrieve.New(cfg.RetrieveTopK),
		Generator: generate.New(log, invoker, cfg.generateConfig()),
	}, services.ProposalServiceConfig{
		TopK:              cfg.RetrieveTopK,
		BulkWorkers:       cfg.BulkGenerateWorkers,
		IngestConcurrency: cfg.IngestBatchConcurrency,
	})

	return Services{Auth: auth, Proposal: proposalSvc}, nil
}
