// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/store/audit"
	"github.com/dalemusser/activityteams/internal/app/system/paging"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /audit.
//
// Filters: category, event_type, user_id, activity_id, start_date and
// end_date (YYYY-MM-DD, inclusive). Pages with ?start=N, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseFilter(r)
	if msg != "" {
		uierrors.BadRequest(w, msg)
		return
	}
	start := paging.ParseStart(r)
	filter.Limit = paging.LimitPlusOne()
	filter.Offset = paging.Skip(start)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}

	pg := paging.TrimPage(&events, start)
	items := h.resolve(ctx, events)
	uierrors.JSON(w, http.StatusOK, listResponse{
		Items:  items,
		Total:  total,
		Range:  paging.ComputeRange(start, len(items)),
		Result: pg,
	})
}

// ServeActivityTrail handles GET /audit/activities/{id}: the latest events
// touching one activity.
func (h *Handler) ServeActivityTrail(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "Bad activity id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.GetByActivity(ctx, id, paging.PageSize)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"items": h.resolve(ctx, events)})
}

// parseFilter returns a user-facing message when a parameter is invalid.
func parseFilter(r *http.Request) (audit.QueryFilter, string) {
	var f audit.QueryFilter

	f.Category = strings.TrimSpace(query.Get(r, "category"))
	known := eventTypesForCategory(f.Category)
	if known == nil {
		return f, "Unknown category."
	}
	f.EventType = strings.TrimSpace(query.Get(r, "event_type"))
	if f.EventType != "" && !slices.Contains(known, f.EventType) {
		return f, "Unknown event type for this category."
	}

	for param, dst := range map[string]**primitive.ObjectID{
		"user_id":     &f.UserID,
		"activity_id": &f.ActivityID,
	} {
		if v := strings.TrimSpace(query.Get(r, param)); v != "" {
			oid, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return f, "Bad " + param + "."
			}
			*dst = &oid
		}
	}

	if v := strings.TrimSpace(query.Get(r, "start_date")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, "start_date must be YYYY-MM-DD."
		}
		f.StartTime = &t
	}
	if v := strings.TrimSpace(query.Get(r, "end_date")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, "end_date must be YYYY-MM-DD."
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &endOfDay
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, "end_date is before start_date."
	}
	return f, ""
}

// resolve turns events into list items, looking up user and team names in
// two batched reads. Lookup failures fall back to hex ids.
func (h *Handler) resolve(ctx context.Context, events []audit.Event) []listItem {
	var userIDs, teamIDs []primitive.ObjectID
	for _, e := range events {
		if e.ActorID != nil {
			userIDs = append(userIDs, *e.ActorID)
		}
		if e.UserID != nil {
			userIDs = append(userIDs, *e.UserID)
		}
		if e.TeamID != nil {
			teamIDs = append(teamIDs, *e.TeamID)
		}
	}

	userNames := map[primitive.ObjectID]string{}
	if len(userIDs) > 0 {
		users, err := h.Users.GetMany(ctx, userIDs)
		if err != nil {
			h.Log.Warn("audit log: user names unavailable", zap.Error(err))
		}
		for id, u := range users {
			userNames[id] = u.FullName
		}
	}
	teamNames := map[primitive.ObjectID]string{}
	if len(teamIDs) > 0 {
		teams, err := h.Teams.GetMany(ctx, teamIDs)
		if err != nil {
			h.Log.Warn("audit log: team names unavailable", zap.Error(err))
		}
		for id, t := range teams {
			teamNames[id] = t.Name
		}
	}

	name := func(names map[primitive.ObjectID]string, id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:         e.ID.Hex(),
			Timestamp:  e.Timestamp,
			Category:   e.Category,
			EventType:  e.EventType,
			ActorName:  name(userNames, e.ActorID),
			TargetName: name(userNames, e.UserID),
			TeamName:   name(teamNames, e.TeamID),
			IP:         e.IP,
			Success:    e.Success,
			Reason:     e.FailureReason,
			Details:    e.Details,
		}
		if e.ActivityID != nil {
			item.ActivityID = e.ActivityID.Hex()
		}
		items = append(items, item)
	}
	return items
}
