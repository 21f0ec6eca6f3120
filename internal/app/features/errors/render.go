// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	teammemberstore "github.com/dalemusser/activityteams/internal/app/store/teammembers"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BadRequest reports a malformed request.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, body{Error: "bad_request", Message: msg})
}

// Render maps a service error to a status code and writes it.
// Unrecognized errors are logged and reported as 500 without detail.
func Render(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var verr *teamassign.ValidationError
	switch {
	case stderrors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, body{Error: "validation", Message: verr.Error()})
	case stderrors.Is(err, activities.ErrAssignationDenied),
		stderrors.Is(err, userstore.ErrAccessDenied):
		JSON(w, http.StatusForbidden, body{Error: "forbidden", Message: err.Error()})
	case stderrors.Is(err, activities.ErrActivityNotFound),
		stderrors.Is(err, activities.ErrRecordNotFound),
		stderrors.Is(err, mongo.ErrNoDocuments):
		JSON(w, http.StatusNotFound, body{Error: "not_found", Message: err.Error()})
	case stderrors.Is(err, activities.ErrInvalidActivity):
		JSON(w, http.StatusBadRequest, body{Error: "bad_request", Message: err.Error()})
	case stderrors.Is(err, teamstore.ErrDuplicateTeamName),
		stderrors.Is(err, teammemberstore.ErrDuplicateMembership),
		stderrors.Is(err, userstore.ErrDuplicateEmail):
		JSON(w, http.StatusConflict, body{Error: "conflict", Message: err.Error()})
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		JSON(w, http.StatusInternalServerError, body{Error: "internal", Message: "Something went wrong."})
	}
}
