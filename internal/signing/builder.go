package signing

import (
	"context"
	"kpp-siprima/internal/model"
	requestresponse "kpp-siprima/internal/model/requestresponse"
	"kpp-siprima/internal/placement"
	"strings"
	"sync"
	"sync/atomic"
)

// Backend : the API calls a RequestBuilder needs, *Client implements it
type Backend interface {
	ListTemplates(ctx context.Context) ([]requestresponse.TemplateResponse, error)
	Sign(ctx context.Context, documentID string, req requestresponse.SignRequest) (*requestresponse.SignResponse, error)
	Reject(ctx context.Context, documentID, notes string) (*requestresponse.RejectResponse, error)
}

// Result : outcome of an accepted sign or reject submission
type Result struct {
	SignatureID string
	Status      model.DocumentStatus
}

// RequestBuilder collects the template, placement and notes of one signing
// session for one document. At most one submission is in flight at a time.
type RequestBuilder struct {
	backend    Backend
	documentID string

	mu        sync.Mutex
	templates []requestresponse.TemplateResponse
	loaded    bool
	template  *requestresponse.TemplateResponse
	placement *model.Placement
	pageCount int
	notes     string
	status    model.DocumentStatus

	inFlight atomic.Bool
}

func NewRequestBuilder(backend Backend, documentID string) *RequestBuilder {
	return &RequestBuilder{backend: backend, documentID: documentID}
}

// Track follows the coordinator's placement record from now on.
func (b *RequestBuilder) Track(c *placement.Coordinator) {
	c.Subscribe(b.SetPlacement)

	b.mu.Lock()
	b.pageCount = c.PageCount()
	b.mu.Unlock()

	if p, ok := c.CurrentPlacement(); ok {
		b.SetPlacement(p)
	}
}

func (b *RequestBuilder) SetPlacement(p model.Placement) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.placement = &p
}

func (b *RequestBuilder) SetNotes(notes string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes = notes
}

// Templates : the caller's templates, fetched once per session
func (b *RequestBuilder) Templates(ctx context.Context) ([]requestresponse.TemplateResponse, error) {
	b.mu.Lock()
	if b.loaded {
		templates := b.templates
		b.mu.Unlock()
		return templates, nil
	}
	b.mu.Unlock()

	templates, err := b.backend.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.templates = templates
	b.loaded = true
	b.mu.Unlock()
	return templates, nil
}

// SelectTemplate picks one of the caller's templates. A template with an
// empty or undecodable image is refused and the previous choice is cleared.
func (b *RequestBuilder) SelectTemplate(ctx context.Context, templateID string) error {
	templates, err := b.Templates(ctx)
	if err != nil {
		return err
	}

	var chosen *requestresponse.TemplateResponse
	for i := range templates {
		if templates[i].ID == templateID {
			chosen = &templates[i]
			break
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.template = nil

	if chosen == nil {
		return model.NewValidationError("signature template not found", nil)
	}
	if _, err := model.DecodeSignatureImage(chosen.SignatureImage); err != nil {
		return err
	}
	selected := *chosen
	b.template = &selected
	return nil
}

// SubmitSign sends the sign request. Missing pieces fail with ValidationError
// before anything is sent.
func (b *RequestBuilder) SubmitSign(ctx context.Context) (*Result, error) {
	req, err := b.signRequest()
	if err != nil {
		return nil, err
	}

	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, model.NewConflictError("a submission is already in progress", nil)
	}
	defer b.inFlight.Store(false)

	resp, err := b.backend.Sign(ctx, b.documentID, req)
	if err != nil {
		return nil, err
	}

	status := model.DocumentStatus(resp.DocumentStatus)
	b.setStatus(status)
	return &Result{SignatureID: resp.SignatureID, Status: status}, nil
}

// SubmitReject rejects the document. Confirmation is the caller's job; a
// reason is required.
func (b *RequestBuilder) SubmitReject(ctx context.Context, notes string) (*Result, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, model.NewValidationError("a rejection reason is required", nil)
	}

	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, model.NewConflictError("a submission is already in progress", nil)
	}
	defer b.inFlight.Store(false)

	resp, err := b.backend.Reject(ctx, b.documentID, notes)
	if err != nil {
		return nil, err
	}

	status := model.DocumentStatus(resp.DocumentStatus)
	b.setStatus(status)
	return &Result{Status: status}, nil
}

// InFlight : true while a submission waits for the server
func (b *RequestBuilder) InFlight() bool {
	return b.inFlight.Load()
}

// Status : last status returned by the server, empty before any submission
func (b *RequestBuilder) Status() model.DocumentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *RequestBuilder) setStatus(status model.DocumentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

func (b *RequestBuilder) signRequest() (requestresponse.SignRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.template == nil {
		return requestresponse.SignRequest{}, model.NewValidationError("select a signature template", nil)
	}
	if strings.TrimSpace(b.template.SignatureImage) == "" {
		return requestresponse.SignRequest{}, model.NewValidationError("no signature data", nil)
	}
	if b.placement == nil {
		return requestresponse.SignRequest{}, model.NewValidationError("place the signature on the document", nil)
	}
	if err := b.placement.Validate(); err != nil {
		return requestresponse.SignRequest{}, err
	}
	if b.pageCount > 0 && b.placement.Page > b.pageCount {
		return requestresponse.SignRequest{}, model.NewValidationError("placement page is outside the document", nil)
	}

	p := *b.placement
	return requestresponse.SignRequest{
		TemplateID: b.template.ID,
		Placement:  &p,
		Notes:      b.notes,
	}, nil
}
