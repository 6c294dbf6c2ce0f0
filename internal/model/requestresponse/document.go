package requestresponse

import (
	"kpp-siprima/internal/model"
	"time"
)

// ErrorDetail : error payload, kind is one of the model.ErrorKind values
type ErrorDetail struct {
	Kind    string `json:"kind" example:"ConflictError"`
	Message string `json:"message" example:"document is already signed"`
}

// ErrorResponse : standard error envelope
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// SignRequest : body of POST /api/docs/{doc_id}/sign
type SignRequest struct {
	TemplateID string           `json:"templateId" example:"1f0c9a8e-4b1d-4f1e-8b29-1234567890ab"`
	Placement  *model.Placement `json:"placement"`
	Notes      string           `json:"notes" example:"approved"`
}

// SignResponse : successful sign action
type SignResponse struct {
	Success        bool   `json:"success" example:"true"`
	SignatureID    string `json:"signatureId" example:"9d7c1c1e-2f44-4b3a-9a57-0c1de0b8b8a1"`
	DocumentStatus string `json:"documentStatus" example:"signed"`
}

// RejectRequest : body of POST /api/docs/{doc_id}/reject
type RejectRequest struct {
	Notes string `json:"notes" example:"wrong attachment"`
}

// RejectResponse : successful reject action
type RejectResponse struct {
	Success        bool   `json:"success" example:"true"`
	DocumentStatus string `json:"documentStatus" example:"rejected"`
}

// SubmitResponse : document routed for signature
type SubmitResponse struct {
	Success        bool   `json:"success" example:"true"`
	DocumentStatus string `json:"documentStatus" example:"pending_signature"`
}

// StatusResponse : current status and signatures of a document
type StatusResponse struct {
	Status     string                    `json:"status" example:"signed"`
	Signatures []model.DocumentSignature `json:"signatures"`
}

// DocumentResponse : document metadata for JSON responses
type DocumentResponse struct {
	UUID        string `json:"id" example:"qwdj1q4o-34u3-4ih7-59ou-1a2b3c4d5e6f"`
	Title       string `json:"title" example:"Surat Tugas"`
	Description string `json:"description" example:"surat tugas pemeriksaan"`
	MimeType    string `json:"mime" example:"application/pdf"`
	Extension   string `json:"extension" example:"pdf"`
	PageCount   int    `json:"page_count" example:"3"`
	Status      string `json:"status" example:"draft"`
	CreatedAt   string `json:"created" example:"2025-08-23T12:34:56Z"`
	UpdatedAt   string `json:"updated" example:"2025-08-23T12:34:56Z"`
	GetURL      string `json:"get_url,omitempty"`
}

// DocumentResponseFromModel : converts model.Document to DocumentResponse
func DocumentResponseFromModel(doc *model.Document, getURL string) DocumentResponse {
	return DocumentResponse{
		UUID:        doc.UUID,
		Title:       doc.Title,
		Description: doc.Description,
		MimeType:    doc.MimeType,
		Extension:   doc.Extension,
		PageCount:   doc.PageCount,
		Status:      string(doc.Status),
		CreatedAt:   doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   doc.UpdatedAt.Format(time.RFC3339),
		GetURL:      getURL,
	}
}

// CreateDocumentResponse : upload accepted
type CreateDocumentResponse struct {
	Data DocumentResponse `json:"data"`
}

// ListDocumentsResponse : page of the caller's documents
type ListDocumentsResponse struct {
	Data struct {
		Docs []DocumentResponse `json:"docs"`
	} `json:"data"`
	NextCursor string `json:"next_cursor,omitempty" example:"2025-08-23T12:34:56.123456Z"`
	Count      int    `json:"count" example:"10"`
}
