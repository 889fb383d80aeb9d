package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/http/response"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/services"
)

type KnowledgeHandler struct {
	log       *logger.Logger
	proposals services.ProposalService
}

func NewKnowledgeHandler(log *logger.Logger, proposals services.ProposalService) *KnowledgeHandler {
	return &KnowledgeHandler{log: log.With("handler", "KnowledgeHandler"), proposals: proposals}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// POST /api/knowledge/search
func (h *KnowledgeHandler) Search(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	hits, err := h.proposals.SearchKnowledge(c.Request.Context(), req.Query, rd.CompanyID, req.TopK)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if hits == nil {
		hits = []proposal.RetrievalHit{}
	}
	response.RespondOK(c, proposal.RetrievalResult{Query: req.Query, Hits: hits})
}

type createKnowledgeRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// POST /api/knowledge
func (h *KnowledgeHandler) Create(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req createKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	entry, err := h.proposals.CreateKnowledgeEntry(c.Request.Context(), &proposal.KnowledgeEntry{
		CompanyID: rd.CompanyID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Category:  proposal.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Tags:      req.Tags,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"entry": entry})
}
