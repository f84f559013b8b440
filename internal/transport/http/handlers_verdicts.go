package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"factgate/internal/identity"
	"factgate/internal/requestval"
	"factgate/internal/respcache"
	"factgate/internal/verdicts/models"
	"factgate/internal/verdicts/store"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/httputil"
)

// VerdictService is the reconciliation surface the handlers need.
type VerdictService interface {
	Displayed(ctx context.Context, claimID uuid.UUID) (*models.DisplayedVerdict, error)
	RecordHumanVerdict(ctx context.Context, verdict *models.HumanVerdict) error
	ApplyHumanEdit(ctx context.Context, verdictID uuid.UUID, editorID string, fields store.EditFields) (*models.AutomatedVerdict, error)
}

type VerdictsHandler struct {
	verdicts VerdictService
	cache    *respcache.Service
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewVerdictsHandler(verdicts VerdictService, cache *respcache.Service, cacheTTL time.Duration, logger *slog.Logger) *VerdictsHandler {
	return &VerdictsHandler{
		verdicts: verdicts,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HandleDisplayed handles GET /claims/{id}/verdict: the reconciled verdict a
// reader should see.
func (h *VerdictsHandler) HandleDisplayed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid claim id"))
		return
	}

	compute := func(ctx context.Context) ([]byte, error) {
		displayed, err := h.verdicts.Displayed(ctx, claimID)
		if err != nil {
			return nil, err
		}
		if displayed == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim has no verdict yet")
		}
		return json.Marshal(displayed)
	}

	if h.cache == nil {
		payload, err := compute(ctx)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
		return
	}

	key := respcache.Key("claims/"+claimID.String()+"/verdict", "", nil)
	result, err := h.cache.GetOrCompute(ctx, key, h.cacheTTL, compute)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCached(w, result)
}

// HandleSubmitHuman handles POST /claims/{id}/verdict: a reviewer's own
// verdict, which takes display precedence and resolves the claim.
func (h *VerdictsHandler) HandleSubmitHuman(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid claim id"))
		return
	}

	var payload requestval.VerdictSubmission
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if errs := requestval.ValidateVerdictSubmission(&payload); errs.Any() {
		writeValidationErrors(w, errs)
		return
	}

	label, err := models.ParseLabel(payload.Verdict)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verdict label"))
		return
	}

	reviewer := identity.FromContext(ctx)
	verdict, err := models.NewHumanVerdict(claimID, reviewer.Subject, label,
		payload.Explanation, payload.Sources, payload.ReviewNotes, payload.TimeSpentSeconds)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.verdicts.RecordHumanVerdict(ctx, verdict); err != nil {
		h.logger.ErrorContext(ctx, "human verdict rejected",
			"claim_id", claimID,
			"reviewer_id", reviewer.Subject,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.invalidateClaim(ctx, claimID)
	httputil.WriteJSON(w, http.StatusCreated, verdict)
}

// verdictPatch is the partial-update payload for an automated verdict.
type verdictPatch struct {
	Verdict     *string  `json:"verdict,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Explanation *string  `json:"explanation,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

// HandleEditAutomated handles PATCH /verdicts/auto/{id}: in-place correction
// of an automated verdict, permanently attributing it to the editor.
func (h *VerdictsHandler) HandleEditAutomated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verdictID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verdict id"))
		return
	}

	var payload verdictPatch
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	fields := store.EditFields{
		Confidence:  payload.Confidence,
		Explanation: payload.Explanation,
		Sources:     payload.Sources,
	}
	if payload.Verdict != nil {
		label, err := models.ParseLabel(*payload.Verdict)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verdict label"))
			return
		}
		fields.Label = &label
	}

	editor := identity.FromContext(ctx)
	verdict, err := h.verdicts.ApplyHumanEdit(ctx, verdictID, editor.Subject, fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.invalidateClaim(ctx, verdict.ClaimID)
	httputil.WriteJSON(w, http.StatusOK, verdict)
}

func (h *VerdictsHandler) invalidateClaim(ctx context.Context, claimID uuid.UUID) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, "rc:claims/"+claimID.String()+"*"); err != nil {
		h.logger.WarnContext(ctx, "failed to invalidate cached claim reads",
			"claim_id", claimID, "error", err.Error())
	}
}
