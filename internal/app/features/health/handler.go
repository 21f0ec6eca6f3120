package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Outbox is the part of the mail worker the health check reports on.
type Outbox interface {
	Pending() int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Outbox Outbox // nil when mail is disabled
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, outbox Outbox, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Outbox: outbox,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Mail     *mailStatus `json:"mail,omitempty"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type mailStatus struct {
	Pending int `json:"pending"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "mail":{"pending":0} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Outbox != nil {
		resp.Mail = &mailStatus{Pending: h.Outbox.Pending()}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
