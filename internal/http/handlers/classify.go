package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/proposalpilot-backend/internal/http/response"
	"github.com/yungbote/proposalpilot-backend/internal/services"
)

type ClassifyHandler struct {
	proposals services.ProposalService
}

func NewClassifyHandler(proposals services.ProposalService) *ClassifyHandler {
	return &ClassifyHandler{proposals: proposals}
}

type classifyRequest struct {
	Text string `json:"text"`
}

// POST /api/classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"category": h.proposals.Classify(req.Text)})
}
