package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"factgate/internal/respcache"
	"factgate/internal/trending/models"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/httputil"
)

const maxTrendingLimit = 50

// TrendingLister returns the ranked active topics.
type TrendingLister interface {
	CurrentTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error)
}

type TrendingHandler struct {
	trending TrendingLister
	cache    *respcache.Service
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewTrendingHandler(trending TrendingLister, cache *respcache.Service, cacheTTL time.Duration, logger *slog.Logger) *TrendingHandler {
	return &TrendingHandler{
		trending: trending,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HandleList handles GET /trending?limit=N.
func (h *TrendingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxTrendingLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 50"))
			return
		}
		limit = parsed
	}

	compute := func(ctx context.Context) ([]byte, error) {
		topics, err := h.trending.CurrentTrending(ctx, limit)
		if err != nil {
			return nil, err
		}
		if topics == nil {
			topics = []*models.TrendingTopic{}
		}
		return json.Marshal(map[string]any{"topics": topics})
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

	key := respcache.Key("trending", "", []byte(strconv.Itoa(limit)))
	result, err := h.cache.GetOrCompute(ctx, key, h.cacheTTL, compute)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCached(w, result)
}
