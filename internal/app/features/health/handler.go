package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	API   *apiclient.Client
	Mongo *mongo.Client // nil when no audit store is configured
	Cache *querycache.Cache
	Log   *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(api *apiclient.Client, client *mongo.Client, cache *querycache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		API:   api,
		Mongo: client,
		Cache: cache,
		Log:   logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string            `json:"status"`
	Backend  string            `json:"backend"`
	Database string            `json:"database"`
	Error    string            `json:"error,omitempty"`
	Cache    *querycache.Stats `json:"cache,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"reachable", "database":"connected", "cache":{...} }
//
// When the backend cannot be reached: 503 with "status":"error". A MongoDB
// failure degrades the status but the portal keeps serving pages.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	resp := healthResponse{
		Status:   "ok",
		Backend:  "reachable",
		Database: "not configured",
	}
	if h.Cache != nil {
		st := h.Cache.Stats()
		resp.Cache = &st
	}

	if h.Mongo != nil {
		resp.Database = "connected"
		if err := h.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			h.Log.Warn("health-check: mongo ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "disconnected"
			resp.Error = err.Error()
		}
	}

	if err := h.API.Ping(ctx); err != nil {
		h.Log.Error("health-check: backend unreachable", zap.Error(err))
		resp.Status = "error"
		resp.Backend = "unreachable"
		resp.Error = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(resp)
}
