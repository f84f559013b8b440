package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"factgate/internal/audit"
	"factgate/internal/claims/models"
	"factgate/internal/identity"
	platformMetrics "factgate/internal/platform/metrics"
	platformMW "factgate/internal/platform/middleware"
	"factgate/internal/requestval"
	"factgate/internal/respcache"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/httputil"
)

// ClaimPipeline accepts validated claims and drives their automated
// evaluation in the background.
type ClaimPipeline interface {
	Submit(ctx context.Context, claim *models.Claim, device string) (*models.Claim, error)
}

// ClaimReader is the read/assign slice of the claims service.
type ClaimReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	Assign(ctx context.Context, id uuid.UUID, reviewerID string) error
}

// ClaimsHandler wires claim endpoints to the submission pipeline and the
// claims service.
type ClaimsHandler struct {
	pipeline ClaimPipeline
	claims   ClaimReader
	cache    *respcache.Service
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  *platformMetrics.Metrics
}

func NewClaimsHandler(pipeline ClaimPipeline, claims ClaimReader, cache *respcache.Service, cacheTTL time.Duration, logger *slog.Logger, metrics *platformMetrics.Metrics) *ClaimsHandler {
	return &ClaimsHandler{
		pipeline: pipeline,
		claims:   claims,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleCreate handles POST /claims.
func (h *ClaimsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload requestval.ClaimSubmission
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if errs := requestval.ValidateClaimSubmission(&payload); errs.Any() {
		writeValidationErrors(w, errs)
		return
	}

	claim, err := h.submitOne(ctx, &payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "claim submission failed",
			"request_id", platformMW.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ClaimsSubmitted.Inc()
	}
	httputil.WriteJSON(w, http.StatusAccepted, claim)
}

// HandleCreateBatch handles POST /claims/batch. The batch is atomic at the
// validation layer: one bad entry rejects the whole request before any claim
// is persisted.
func (h *ClaimsHandler) HandleCreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Claims []requestval.ClaimSubmission `json:"claims"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if errs := requestval.ValidateBatchClaims(payload.Claims); errs.Any() {
		writeValidationErrors(w, errs)
		return
	}

	accepted := make([]*models.Claim, 0, len(payload.Claims))
	for i := range payload.Claims {
		claim, err := h.submitOne(ctx, &payload.Claims[i])
		if err != nil {
			h.logger.ErrorContext(ctx, "batch claim submission failed",
				"request_id", platformMW.GetRequestID(ctx),
				"index", i,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		if h.metrics != nil {
			h.metrics.ClaimsSubmitted.Inc()
		}
		accepted = append(accepted, claim)
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"claims": accepted})
}

// HandleGet handles GET /claims/{id}. Reads are cached; a verdict landing on
// the claim invalidates the entry.
func (h *ClaimsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid claim id"))
		return
	}

	if h.cache == nil {
		claim, err := h.claims.Get(ctx, id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, claim)
		return
	}

	key := respcache.Key("claims/"+id.String(), "", nil)
	result, err := h.cache.GetOrCompute(ctx, key, h.cacheTTL, func(ctx context.Context) ([]byte, error) {
		claim, err := h.claims.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(claim)
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCached(w, result)
}

// HandleAssign handles POST /claims/{id}/assign. The acting reviewer assigns
// themselves; double assignment conflicts.
func (h *ClaimsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid claim id"))
		return
	}

	reviewer := identity.FromContext(ctx)
	if err := h.claims.Assign(ctx, id, reviewer.Subject); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"claim_id":    id.String(),
		"reviewer_id": reviewer.Subject,
	})
}

func (h *ClaimsHandler) submitOne(ctx context.Context, payload *requestval.ClaimSubmission) (*models.Claim, error) {
	caller := identity.FromContext(ctx)
	claim, err := models.NewClaim(caller.Key(), platformMW.GetClientIP(ctx),
		payload.Title, payload.Description, payload.Category, payload.MediaRefs)
	if err != nil {
		return nil, err
	}
	return h.pipeline.Submit(ctx, claim, audit.DeviceSummary(platformMW.GetUserAgent(ctx)))
}

// writeValidationErrors emits the field-level error list alongside the
// standard error envelope.
func writeValidationErrors(w http.ResponseWriter, errs requestval.Errors) {
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":             string(dErrors.CodeValidationFailed),
		"error_description": "request validation failed",
		"fields":            errs,
	})
}

// writeCached sends a cached JSON payload, marking hits for observability
// without altering the payload.
func writeCached(w http.ResponseWriter, result *respcache.Result) {
	if result.Hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Value)
}
