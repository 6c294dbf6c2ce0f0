package requestresponse

import "kpp-siprima/internal/model"

// TemplateResponse : template listing item
type TemplateResponse struct {
	ID             string `json:"id" example:"1f0c9a8e-4b1d-4f1e-8b29-1234567890ab"`
	Name           string `json:"name" example:"Paraf Kepala Seksi"`
	SignatureImage string `json:"signature_image" example:"data:image/png;base64,iVBORw0KGgo..."`
	CreatedAt      string `json:"created" example:"2025-08-23T12:34:56Z"`
}

func TemplateResponseFromModel(t *model.SignatureTemplate) TemplateResponse {
	return TemplateResponse{
		ID:             t.UUID,
		Name:           t.Name,
		SignatureImage: t.SignatureImage,
		CreatedAt:      t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListTemplatesResponse : templates owned by the caller
type ListTemplatesResponse struct {
	Data []TemplateResponse `json:"data"`
}

// CreateTemplateRequest : body of POST /api/templates
type CreateTemplateRequest struct {
	Name           string `json:"name" example:"Paraf Kepala Seksi"`
	SignatureImage string `json:"signature_image" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// CreateTemplateResponse : created template
type CreateTemplateResponse struct {
	Data TemplateResponse `json:"data"`
}

// SuccessResponse : generic acknowledgement
type SuccessResponse struct {
	Message string `json:"message" example:"ok"`
}
