package handler

import (
	"context"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"io"
	"kpp-siprima/internal/model"
	requestresponse "kpp-siprima/internal/model/requestresponse"
	"kpp-siprima/internal/ports"
	"kpp-siprima/internal/security"
	"kpp-siprima/internal/util"
	"net/http"
	"strconv"
	"time"
)

const (
	requestTimeout = 10 * time.Second
	signTimeout    = 60 * time.Second
	maxJSONBody    = 64 << 10
)

type DocumentHandler struct {
	ports.WorkflowService
	maxUploadBytes int64
}

func NewDocumentHandler(workflowService ports.WorkflowService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{workflowService, maxUploadBytes}
}

// CreateDocument godoc
// @Summary Upload a document
// @Description Uploads a PDF as a new draft document (multipart/form-data).
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param title formData string false "Document title, defaults to the file name"
// @Param description formData string false "Document description"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateDocumentResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs [post]
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		util.HandleError(w, model.KindValidation, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		util.HandleError(w, model.KindValidation, "file is missing from the request")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		util.HandleError(w, model.KindValidation, "failed to read the uploaded file")
		return
	}

	document, err := h.WorkflowService.CreateDocument(ctx, claims.UserUUID,
		r.FormValue("title"), r.FormValue("description"), header.Filename, data)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, requestresponse.CreateDocumentResponse{
		Data: requestresponse.DocumentResponseFromModel(document, ""),
	})
}

// ListDocuments godoc
// @Summary List own documents
// @Description Newest first, paginated with the cursor returned by the previous page.
// @Tags Documents
// @Produce json
// @Param cursor query string false "Cursor from next_cursor"
// @Param limit query int false "Page size (1..100)"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListDocumentsResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			util.HandleError(w, model.KindValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	docs, next, err := h.WorkflowService.ListDocuments(r.Context(), claims.UserUUID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	var resp requestresponse.ListDocumentsResponse
	resp.Data.Docs = make([]requestresponse.DocumentResponse, 0, len(docs))
	for i := range docs {
		getURL, err := h.WorkflowService.DocumentURL(r.Context(), &docs[i])
		if err != nil {
			zap.L().Warn("[DocumentHandler] presign failed", zap.String("document", docs[i].UUID), zap.Error(err))
		}
		resp.Data.Docs = append(resp.Data.Docs, requestresponse.DocumentResponseFromModel(&docs[i], getURL))
	}
	resp.NextCursor = next
	resp.Count = len(resp.Data.Docs)

	util.WriteJSON(w, http.StatusOK, resp)
}

// GetDocumentFile godoc
// @Summary Document source
// @Description Raw bytes of the document, the stamped PDF once it is signed.
// @Tags Documents
// @Produce application/pdf
// @Param doc_id path string true "Document UUID"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {file} binary
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{doc_id}/file [get]
func (h *DocumentHandler) GetDocumentFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := claimsOrFail(w, r); !ok {
		return
	}

	document, data, err := h.WorkflowService.GetDocumentSource(r.Context(), chi.URLParam(r, "doc_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", document.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Document-Status", string(document.Status))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Warn("[DocumentHandler] writing document body", zap.Error(err))
	}
}

// SubmitForSignature godoc
// @Summary Route a document for signature
// @Description Moves a draft document to pending_signature. Owner only.
// @Tags Signing
// @Produce json
// @Param doc_id path string true "Document UUID"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SubmitResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{doc_id}/submit [post]
func (h *DocumentHandler) SubmitForSignature(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	status, err := h.WorkflowService.SubmitForSignature(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.SubmitResponse{Success: true, DocumentStatus: string(status)})
}

// Sign godoc
// @Summary Sign a document
// @Description Stamps the template image at the placement (PDF points, top-left origin) and marks the document signed.
// @Tags Signing
// @Accept json
// @Produce json
// @Param doc_id path string true "Document UUID"
// @Param request body requestresponse.SignRequest true "Template, placement and notes"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SignResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{doc_id}/sign [post]
func (h *DocumentHandler) Sign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), signTimeout)
	defer cancel()

	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	var req requestresponse.SignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.WorkflowService.Sign(ctx, model.SignCommand{
		DocumentUUID: chi.URLParam(r, "doc_id"),
		UserUUID:     claims.UserUUID,
		TemplateUUID: req.TemplateID,
		Placement:    req.Placement,
		Notes:        req.Notes,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.SignResponse{
		Success:        true,
		SignatureID:    result.SignatureUUID,
		DocumentStatus: string(result.Status),
	})
}

// Reject godoc
// @Summary Reject a document
// @Description Marks the document rejected with the signer's reason. Nothing is stamped.
// @Tags Signing
// @Accept json
// @Produce json
// @Param doc_id path string true "Document UUID"
// @Param request body requestresponse.RejectRequest true "Rejection reason"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.RejectResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{doc_id}/reject [post]
func (h *DocumentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	var req requestresponse.RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.WorkflowService.Reject(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID, req.Notes)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.RejectResponse{Success: true, DocumentStatus: string(status)})
}

// Status godoc
// @Summary Document status
// @Description Current status and signatures, used to re-sync after an error.
// @Tags Signing
// @Produce json
// @Param doc_id path string true "Document UUID"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.StatusResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{doc_id}/status [get]
func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := claimsOrFail(w, r); !ok {
		return
	}

	state, err := h.WorkflowService.Status(r.Context(), chi.URLParam(r, "doc_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	signatures := state.Signatures
	if signatures == nil {
		signatures = []model.DocumentSignature{}
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.StatusResponse{Status: string(state.Status), Signatures: signatures})
}

func claimsOrFail(w http.ResponseWriter, r *http.Request) (*security.Claims, bool) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.HandleError(w, model.KindUnauthorized, "user is not authenticated")
		return nil, false
	}
	return claims, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v interface{}, limit int64) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := decoder.Decode(v); err != nil {
		util.HandleError(w, model.KindValidation, "invalid request body")
		return false
	}
	return true
}
