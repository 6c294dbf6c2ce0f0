package model

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"
)

// Placement : where a signature image is stamped, in scale-1.0 units (PDF points,
// origin at the top-left corner of the page)
type Placement struct {
	Page   int     `json:"page" example:"1"`
	X      float64 `json:"x" example:"100"`
	Y      float64 `json:"y" example:"200"`
	Width  float64 `json:"width" example:"150"`
	Height float64 `json:"height" example:"50"`
}

// Validate checks the placement invariants that do not depend on the document.
func (p Placement) Validate() error {
	switch {
	case p.Page < 1:
		return NewValidationError("placement page must be >= 1", nil)
	case p.X < 0 || p.Y < 0:
		return NewValidationError("placement x and y must be >= 0", nil)
	case p.Width <= 0 || p.Height <= 0:
		return NewValidationError("placement width and height must be > 0", nil)
	}
	return nil
}

// FitsPage checks the placement against the document's page count and the page size in points.
func (p Placement) FitsPage(pageCount int, pageWidth, pageHeight float64) error {
	const tolerance = 0.5
	if p.Page > pageCount {
		return NewValidationError(fmt.Sprintf("placement page %d exceeds page count %d", p.Page, pageCount), nil)
	}
	if p.X+p.Width > pageWidth+tolerance || p.Y+p.Height > pageHeight+tolerance {
		return NewValidationError("placement is outside the page bounds", nil)
	}
	return nil
}

type SignatureTemplate struct {
	UUID           string    `db:"uuid" json:"id"`
	OwnerUUID      string    `db:"owner_uuid" json:"owner_uuid"`
	Name           string    `db:"name" json:"name"`
	SignatureImage string    `db:"signature_image" json:"signature_image"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ImageBytes : decodes the data URI (or bare base64) of the template image
func (t *SignatureTemplate) ImageBytes() ([]byte, error) {
	return DecodeSignatureImage(t.SignatureImage)
}

// DecodeSignatureImage decodes a "data:image/...;base64," URI or a bare base64
// string and checks that the payload is a PNG or JPEG image.
func DecodeSignatureImage(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return nil, NewValidationError("no signature data", nil)
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, NewValidationError("signature image must be a base64 data URI", nil)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, NewValidationError("no signature data", nil)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewValidationError("signature image is not valid base64", err)
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, NewValidationError("signature image is not a readable image", err)
	} else if format != "png" && format != "jpeg" {
		return nil, NewValidationError("signature image must be PNG or JPEG", nil)
	}

	return data, nil
}

// EncodeSignatureImage : builds a data URI for PNG bytes
func EncodeSignatureImage(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

type SignatureStatus string

const (
	SignatureSigned   SignatureStatus = "signed"
	SignatureRejected SignatureStatus = "rejected"
)

// DocumentSignature : persisted result of a sign or reject action
type DocumentSignature struct {
	UUID           string          `json:"id"`
	DocumentUUID   string          `json:"document_uuid"`
	SignerUUID     string          `json:"signer_uuid"`
	SignerName     string          `json:"signer_name"`
	SignerPosition string          `json:"signer_position"`
	TemplateUUID   *string         `json:"template_id,omitempty"`
	Placement      *Placement      `json:"placement,omitempty"`
	Notes          string          `json:"notes"`
	Status         SignatureStatus `json:"status"`
	SignedAt       time.Time       `json:"signed_at"`
}

// SignCommand : input of a sign action, UserUUID comes from the bearer token
type SignCommand struct {
	DocumentUUID string
	UserUUID     string
	TemplateUUID string
	Placement    *Placement
	Notes        string
}

type SignResult struct {
	SignatureUUID string
	Status        DocumentStatus
}
