package handler

import (
	"github.com/go-chi/chi/v5"
	"kpp-siprima/internal/model/requestresponse"
	"kpp-siprima/internal/ports"
	"kpp-siprima/internal/util"
	"net/http"
)

type TemplateHandler struct {
	ports.TemplateService
}

func NewTemplateHandler(templateService ports.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService}
}

// ListTemplates godoc
// @Summary List own signature templates
// @Tags Templates
// @Produce json
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListTemplatesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/templates [get]
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	templates, err := h.TemplateService.ListTemplates(r.Context(), claims.UserUUID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	resp := requestresponse.ListTemplatesResponse{Data: make([]requestresponse.TemplateResponse, 0, len(templates))}
	for i := range templates {
		resp.Data = append(resp.Data, requestresponse.TemplateResponseFromModel(&templates[i]))
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

// CreateTemplate godoc
// @Summary Create a signature template
// @Description signature_image is a PNG or JPEG data URI.
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body requestresponse.CreateTemplateRequest true "Template"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateTemplateResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/templates [post]
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	var req requestresponse.CreateTemplateRequest
	if !decodeJSONLimit(w, r, &req, 4<<20) {
		return
	}

	template, err := h.TemplateService.CreateTemplate(r.Context(), claims.UserUUID, req.Name, req.SignatureImage)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, requestresponse.CreateTemplateResponse{
		Data: requestresponse.TemplateResponseFromModel(template),
	})
}

// DeleteTemplate godoc
// @Summary Delete a signature template
// @Tags Templates
// @Produce json
// @Param template_id path string true "Template UUID"
// @Param Authorization header string true "Bearer token" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/templates/{template_id} [delete]
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrFail(w, r)
	if !ok {
		return
	}

	if err := h.TemplateService.DeleteTemplate(r.Context(), claims.UserUUID, chi.URLParam(r, "template_id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.SuccessResponse{Message: "template deleted"})
}
