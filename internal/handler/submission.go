package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/claimflow/claimflow/internal/handler/dto"
	"github.com/claimflow/claimflow/internal/metrics"
	"github.com/claimflow/claimflow/internal/middleware"
	"github.com/claimflow/claimflow/internal/model"
	"github.com/claimflow/claimflow/internal/store"
	"github.com/claimflow/claimflow/internal/validation"
)

// Error details returned when persistence fails.
const (
	DetailStoreUnavailable = "Database not available. Check DATABASE_URL and DATABASE_NAME environment variables."
	DetailStoreFailed      = "Failed to save submission"
)

// record is a validated submission ready to be persisted.
type record interface {
	Fields() map[string]any
}

// SubmissionHandler accepts form submissions and writes them to the store.
type SubmissionHandler struct {
	store        store.DocumentStore
	validator    *validation.Validator
	metrics      metrics.Recorder
	logger       *slog.Logger
	exposeErrors bool
}

// NewSubmissionHandler creates a SubmissionHandler. The store may be nil, in
// which case every submission fails with store.ErrNotInitialized.
func NewSubmissionHandler(s store.DocumentStore, recorder metrics.Recorder, logger *slog.Logger, exposeErrors bool) *SubmissionHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionHandler{
		store:        s,
		validator:    validation.New(),
		metrics:      recorder,
		logger:       logger,
		exposeErrors: exposeErrors,
	}
}

// Contact stores a contact request.
// POST /api/contact
func (h *SubmissionHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.CollectionContactSubmission, func(b *validation.Binder) (record, validation.Errors) {
		c := model.BindContactSubmission(b)
		return c, h.validator.Check(b, c)
	})
}

// Subscribe stores a newsletter signup.
// POST /api/subscribe
func (h *SubmissionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.CollectionSubscriber, func(b *validation.Binder) (record, validation.Errors) {
		s := model.BindSubscriber(b)
		return s, h.validator.Check(b, s)
	})
}

func (h *SubmissionHandler) submit(
	w http.ResponseWriter,
	r *http.Request,
	collection string,
	bind func(*validation.Binder) (record, validation.Errors),
) {
	payload, err := validation.Decode(r.Body)
	if err != nil {
		h.writeDecodeError(w, collection, err)
		return
	}

	rec, verrs := bind(payload.Bind())
	if verrs != nil {
		h.metrics.IncRejected(collection)
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: verrs})
		return
	}

	id, err := h.create(r.Context(), collection, rec.Fields())
	if err != nil {
		h.metrics.IncStoreFailed(collection)
		h.logger.Error("failed to store submission",
			"collection", collection,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Detail: h.storeErrorDetail(err)})
		return
	}

	h.metrics.IncStored(collection)
	writeJSON(w, http.StatusOK, dto.CreatedResponse{Status: dto.StatusOK, ID: id})
}

func (h *SubmissionHandler) create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if h.store == nil {
		return "", store.ErrNotInitialized
	}
	return h.store.Create(ctx, collection, fields)
}

func (h *SubmissionHandler) writeDecodeError(w http.ResponseWriter, collection string, err error) {
	var verrs validation.Errors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &verrs):
		h.metrics.IncRejected(collection)
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: verrs})
	case errors.As(err, &maxBytesErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Detail: "Request body too large"})
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Detail: "Failed to read request body"})
	}
}

func (h *SubmissionHandler) storeErrorDetail(err error) string {
	switch {
	case errors.Is(err, store.ErrNotInitialized):
		return DetailStoreUnavailable
	case h.exposeErrors:
		return err.Error()
	default:
		return DetailStoreFailed
	}
}
