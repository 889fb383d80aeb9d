package app

import (
	"context"
	"fmt"

	"github.com/yungbote/proposalpilot-backend/internal/clients/redis"
	"github.com/yungbote/proposalpilot-backend/internal/platform/gcp"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/platform/openai"
)

type Clients struct {
	Blobs gcp.BlobStore
	// OCR is nil unless DOCUMENTAI_PROCESSOR_ID is configured.
	OCR *gcp.DocumentOCR
	// Model is nil without OPENAI_API_KEY; generation then uses fallbacks.
	Model *openai.Client
	Bus   redis.EventBus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	blobs, err := resolveBlobStore(ctx, log)
	if err != nil {
		return Clients{}, err
	}
	out.Blobs = blobs

	if docCfg := gcp.DocumentConfigFromEnv(); docCfg.Enabled() {
		ocr, err := gcp.NewDocumentOCR(ctx, log, docCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init document ai: %w", err)
		}
		out.OCR = ocr
	} else {
		log.Info("Document AI not configured; scanned PDFs will not be OCR'd")
	}

	if oaCfg := openai.ConfigFromEnv(); oaCfg.APIKey != "" {
		model, err := openai.NewClient(log, oaCfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out.Model = model
	} else {
		log.Warn("OPENAI_API_KEY not set; answers will use fallback templates")
	}

	if cfg.RedisAddr != "" {
		bus, err := redis.NewEventBus(ctx, log, redis.Config{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		out.Bus = bus
	} else {
		out.Bus = redis.Nop{}
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.OCR != nil {
		_ = c.OCR.Close()
	}
}
