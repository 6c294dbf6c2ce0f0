package signing

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpp-siprima/internal/model"
	requestresponse "kpp-siprima/internal/model/requestresponse"
	"kpp-siprima/internal/pdftest"
	"kpp-siprima/internal/placement"
	"kpp-siprima/internal/render"
	"sync/atomic"
	"testing"
)

type fakeBackend struct {
	templates   []requestresponse.TemplateResponse
	listCalls   atomic.Int32
	signCalls   atomic.Int32
	rejectCalls atomic.Int32
	lastSign    requestresponse.SignRequest
	signErr     error
	// block, when set, holds Sign until it is closed
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeBackend) ListTemplates(ctx context.Context) ([]requestresponse.TemplateResponse, error) {
	f.listCalls.Add(1)
	return f.templates, nil
}

func (f *fakeBackend) Sign(ctx context.Context, documentID string, req requestresponse.SignRequest) (*requestresponse.SignResponse, error) {
	f.signCalls.Add(1)
	f.lastSign = req
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &requestresponse.SignResponse{Success: true, SignatureID: "sig1", DocumentStatus: "signed"}, nil
}

func (f *fakeBackend) Reject(ctx context.Context, documentID, notes string) (*requestresponse.RejectResponse, error) {
	f.rejectCalls.Add(1)
	return &requestresponse.RejectResponse{Success: true, DocumentStatus: "rejected"}, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{templates: []requestresponse.TemplateResponse{
		{ID: "tmplA", Name: "Paraf", SignatureImage: model.EncodeSignatureImage(pdftest.SignaturePNG(60, 20))},
		{ID: "tmplEmpty", Name: "Kosong", SignatureImage: ""},
	}}
}

func scenarioPlacement() model.Placement {
	return model.Placement{Page: 1, X: 100, Y: 200, Width: 150, Height: 50}
}

func TestSubmitSign_Scenario(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")

	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))
	b.SetPlacement(scenarioPlacement())
	b.SetNotes("approved")

	result, err := b.SubmitSign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sig1", result.SignatureID)
	assert.Equal(t, model.StatusSigned, result.Status)
	assert.Equal(t, model.StatusSigned, b.Status())

	assert.Equal(t, "tmplA", backend.lastSign.TemplateID)
	assert.Equal(t, "approved", backend.lastSign.Notes)
	require.NotNil(t, backend.lastSign.Placement)
	assert.Equal(t, scenarioPlacement(), *backend.lastSign.Placement)
}

func TestSelectTemplate_EmptyImageMakesNoSignCall(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")
	b.SetPlacement(scenarioPlacement())

	err := b.SelectTemplate(context.Background(), "tmplEmpty")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Equal(t, "no signature data", model.MessageOf(err))

	_, err = b.SubmitSign(context.Background())
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Zero(t, backend.signCalls.Load())
}

func TestSelectTemplate_FailedChoiceClearsPrevious(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")
	b.SetPlacement(scenarioPlacement())

	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))
	assert.Error(t, b.SelectTemplate(context.Background(), "tmplEmpty"))

	_, err := b.SubmitSign(context.Background())
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Zero(t, backend.signCalls.Load())
}

func TestSelectTemplate_UnknownAndCachedList(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")

	err := b.SelectTemplate(context.Background(), "someone-elses")
	assert.True(t, model.IsKind(err, model.KindValidation))
	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))

	assert.Equal(t, int32(1), backend.listCalls.Load())
}

func TestSubmitSign_MissingPieces(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")

	_, err := b.SubmitSign(context.Background())
	assert.Equal(t, "select a signature template", model.MessageOf(err))

	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))
	_, err = b.SubmitSign(context.Background())
	assert.Equal(t, "place the signature on the document", model.MessageOf(err))

	b.SetPlacement(model.Placement{Page: 1, X: 10, Y: 10, Width: 0, Height: 20})
	_, err = b.SubmitSign(context.Background())
	assert.True(t, model.IsKind(err, model.KindValidation))

	assert.Zero(t, backend.signCalls.Load())
}

func TestSubmitSign_SingleInFlight(t *testing.T) {
	backend := newBackend()
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{})
	b := NewRequestBuilder(backend, "doc1")
	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))
	b.SetPlacement(scenarioPlacement())

	done := make(chan error, 1)
	go func() {
		_, err := b.SubmitSign(context.Background())
		done <- err
	}()
	<-backend.entered
	assert.True(t, b.InFlight())

	_, err := b.SubmitSign(context.Background())
	assert.True(t, model.IsKind(err, model.KindConflict))
	_, err = b.SubmitReject(context.Background(), "duplicate")
	assert.True(t, model.IsKind(err, model.KindConflict))

	close(backend.block)
	require.NoError(t, <-done)
	assert.False(t, b.InFlight())
	assert.Equal(t, int32(1), backend.signCalls.Load())
	assert.Zero(t, backend.rejectCalls.Load())
}

func TestSubmitSign_ServerErrorIsReturnedAndGuardReleased(t *testing.T) {
	backend := newBackend()
	backend.signErr = model.NewConflictError("document is already signed", nil)
	b := NewRequestBuilder(backend, "doc1")
	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))
	b.SetPlacement(scenarioPlacement())

	_, err := b.SubmitSign(context.Background())
	assert.True(t, model.IsKind(err, model.KindConflict))
	assert.False(t, b.InFlight())
	assert.Empty(t, b.Status())
}

func TestSubmitReject(t *testing.T) {
	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")

	_, err := b.SubmitReject(context.Background(), "   ")
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Zero(t, backend.rejectCalls.Load())

	result, err := b.SubmitReject(context.Background(), "wrong attachment")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Empty(t, result.SignatureID)
}

func TestTrack_FollowsCoordinator(t *testing.T) {
	c := placement.NewCoordinator(render.NewSurface())
	_, err := c.Open(context.Background(), pdftest.A4(2), nil)
	require.NoError(t, err)

	backend := newBackend()
	b := NewRequestBuilder(backend, "doc1")
	b.Track(c)
	require.NoError(t, b.SelectTemplate(context.Background(), "tmplA"))

	require.NoError(t, c.Resize(100, 200, 150, 50))
	_, err = b.SubmitSign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scenarioPlacement(), *backend.lastSign.Placement)
}
