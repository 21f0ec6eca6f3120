// internal/app/features/records/handler.go
package records

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	activitystore "github.com/dalemusser/activityteams/internal/app/store/activity"
	messagestore "github.com/dalemusser/activityteams/internal/app/store/messages"
	recordstore "github.com/dalemusser/activityteams/internal/app/store/records"
	"github.com/dalemusser/activityteams/internal/app/system/htmlsanitize"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves record threads: the record, its planned activities and the
// notifications posted to it.
type Handler struct {
	Records    *recordstore.Store
	Activities *activitystore.Store
	Messages   *messagestore.Store
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Records:    recordstore.New(db),
		Activities: activitystore.New(db),
		Messages:   messagestore.New(db),
		Log:        logger,
	}
}

type messageView struct {
	models.Message
	Body template.HTML `json:"body"`
}

type threadView struct {
	Record           models.Record        `json:"record"`
	ModelDescription string               `json:"model_description"`
	Activities       []models.Activity    `json:"activities"`
	Messages         []messageView        `json:"messages"`
	Followers        []primitive.ObjectID `json:"followers"`
}

// ServeThread handles GET /records/{model}/{id}.
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "Bad record id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Records.Get(ctx, model, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	desc, err := h.Records.DescribeModel(ctx, model)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	acts, err := h.Activities.ListByRecord(ctx, model, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	msgs, err := h.Messages.ListByRecord(ctx, model, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	followers, err := h.Messages.Followers(ctx, model, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}

	view := threadView{
		Record:           rec,
		ModelDescription: desc,
		Activities:       acts,
		Messages:         make([]messageView, 0, len(msgs)),
		Followers:        followers,
	}
	if view.Activities == nil {
		view.Activities = []models.Activity{}
	}
	// Bodies carry user-entered notes; only sanitized markup leaves the server.
	for _, m := range msgs {
		view.Messages = append(view.Messages, messageView{Message: m, Body: htmlsanitize.PrepareForDisplay(m.Body)})
	}
	uierrors.JSON(w, http.StatusOK, view)
}

type createRequest struct {
	ResModel          string              `json:"res_model"`
	DisplayName       string              `json:"display_name"`
	ResponsibleUserID *primitive.ObjectID `json:"responsible_user_id"`
}

// HandleCreate handles POST /records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid record.")
		return
	}
	req.ResModel = strings.TrimSpace(req.ResModel)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.ResModel == "" || req.DisplayName == "" {
		uierrors.BadRequest(w, "Model and display name are required.")
		return
	}
	if req.ResponsibleUserID != nil && req.ResponsibleUserID.IsZero() {
		req.ResponsibleUserID = nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Records.Create(ctx, models.Record{
		ResModel:          req.ResModel,
		DisplayName:       req.DisplayName,
		ResponsibleUserID: req.ResponsibleUserID,
	})
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, rec)
}

// HandleRegisterModel handles PUT /records/models/{model}.
func (h *Handler) HandleRegisterModel(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSpace(chi.URLParam(r, "model"))
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || model == "" {
		uierrors.BadRequest(w, "Invalid model description.")
		return
	}
	body.Description = strings.TrimSpace(body.Description)
	if body.Description == "" {
		body.Description = model
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Records.RegisterModel(ctx, model, body.Description); err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
