package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/proposalpilot-backend/internal/http/response"
	"github.com/yungbote/proposalpilot-backend/internal/platform/ctxutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/extract"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/lifecycle"
	"github.com/yungbote/proposalpilot-backend/internal/services"
)

const maxUploadBytes = 32 << 20

type ProposalHandler struct {
	log       *logger.Logger
	proposals services.ProposalService
}

func NewProposalHandler(log *logger.Logger, proposals services.ProposalService) *ProposalHandler {
	return &ProposalHandler{log: log.With("handler", "ProposalHandler"), proposals: proposals}
}

func requestIdentity(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || rd.CompanyID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	return rd, true
}

func proposalIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_proposal_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func readUpload(fh *multipart.FileHeader) (services.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return services.UploadedFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return services.UploadedFile{}, err
	}
	if len(data) > maxUploadBytes {
		return services.UploadedFile{}, fmt.Errorf("file %q exceeds %d bytes", fh.Filename, maxUploadBytes)
	}
	return services.UploadedFile{
		Name:      fh.Filename,
		MediaType: extract.MediaTypeFor(fh.Filename, fh.Header.Get("Content-Type")),
		Data:      data,
	}, nil
}

// POST /api/proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := readUpload(fh)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	p, err := h.proposals.CreateProposal(c.Request.Context(), services.CreateProposalInput{
		UserID:     rd.UserID,
		CompanyID:  rd.CompanyID,
		Title:      c.PostForm("title"),
		ClientName: c.PostForm("client_name"),
		Mode:       services.ExtractionMode(strings.ToLower(strings.TrimSpace(c.PostForm("mode")))),
		File:       file,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"proposal": p})
}

// POST /api/proposals/batch
func (h *ProposalHandler) IngestBatch(c *gin.Context) {
	if _, ok := requestIdentity(c); !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_files", nil)
		return
	}
	files := make([]services.UploadedFile, 0, len(headers))
	var rejected []services.IngestResult
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			rejected = append(rejected, services.IngestResult{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		files = append(files, f)
	}
	results := h.proposals.IngestBatch(c.Request.Context(), files)
	response.RespondOK(c, gin.H{"results": append(results, rejected...)})
}

// GET /api/proposals
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	list, err := h.proposals.ListProposals(c.Request.Context(), rd.CompanyID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposals": list})
}

// GET /api/proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	p, err := h.proposals.GetProposal(c.Request.Context(), rd.CompanyID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposal": p})
}

// DELETE /api/proposals/:id
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	if err := h.proposals.DeleteProposal(c.Request.Context(), rd.CompanyID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reextractRequest struct {
	Mode string `json:"mode"`
}

// POST /api/proposals/:id/reextract
func (h *ProposalHandler) Reextract(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	var req reextractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	mode := services.ExtractionMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = services.ModeHeuristic
	}
	p, err := h.proposals.Reextract(c.Request.Context(), rd.CompanyID, id, mode)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposal": p})
}

// POST /api/proposals/:id/questions/:qid/generate
func (h *ProposalHandler) GenerateQuestion(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	q, err := h.proposals.GenerateForQuestion(c.Request.Context(), rd.CompanyID, id, c.Param("qid"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// POST /api/proposals/:id/generate-all
func (h *ProposalHandler) GenerateAll(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	res, err := h.proposals.BulkGenerate(c.Request.Context(), rd.CompanyID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// PATCH /api/proposals/:id/questions/:qid
func (h *ProposalHandler) UpdateQuestion(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	var req lifecycle.HumanUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := h.proposals.UpdateQuestion(c.Request.Context(), rd.CompanyID, id, c.Param("qid"), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

type improveRequest struct {
	Feedback string `json:"feedback"`
}

// POST /api/proposals/:id/questions/:qid/improve
func (h *ProposalHandler) ImproveQuestion(c *gin.Context) {
	rd, ok := requestIdentity(c)
	if !ok {
		return
	}
	id, ok := proposalIDParam(c)
	if !ok {
		return
	}
	var req improveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := h.proposals.ImproveQuestion(c.Request.Context(), rd.CompanyID, id, c.Param("qid"), req.Feedback)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}
