// Package notify decides who hears about activity assignments and completions
// and delivers the rendered notification to the record's thread.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/htmlsanitize"
	"github.com/dalemusser/activityteams/internal/app/system/mailer"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Thread posts messages to a record's thread.
type Thread interface {
	Post(ctx context.Context, m models.Message) (models.Message, error)
}

// Outbox queues an email copy of a notification. Delivery is best effort.
type Outbox interface {
	Enqueue(e mailer.Email) bool
}

// Recipient is the user a notification is addressed to.
type Recipient struct {
	UserID    primitive.ObjectID
	PartnerID primitive.ObjectID
	Name      string
	Email     string
	Lang      string
}

// Target describes the record an activity belongs to.
type Target struct {
	Record           models.Record
	ModelDescription string
	// TypeName is the activity type's name, used when the activity has no summary.
	TypeName string
	TeamName string
}

// Router renders and delivers activity notifications.
type Router struct {
	renderer *Renderer
	thread   Thread
	outbox   Outbox
	baseURL  string
	log      *zap.Logger
}

// Options configures a Router.
type Options struct {
	BaseURL string
	// Outbox is optional; without it notifications stay on the thread.
	Outbox Outbox
}

// NewRouter creates a Router.
func NewRouter(renderer *Renderer, thread Thread, logger *zap.Logger, opts Options) *Router {
	return &Router{
		renderer: renderer,
		thread:   thread,
		outbox:   opts.Outbox,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		log:      logger,
	}
}

// Link is the deep link to the record an activity is attached to.
func (r *Router) Link(resModel string, resID primitive.ObjectID) string {
	return fmt.Sprintf("%s/records/%s/%s", r.baseURL, url.PathEscape(resModel), resID.Hex())
}

// Subject is "<record display name>: <summary or activity type name>".
func Subject(act models.Activity, t Target) string {
	what := act.Summary
	if what == "" {
		what = t.TypeName
	}
	return t.Record.DisplayName + ": " + what
}

// NotifyAssigned tells to that act was assigned to them (or their team).
// author is who made the assignment and may be nil.
func (r *Router) NotifyAssigned(ctx context.Context, to Recipient, act models.Activity, t Target, author *Recipient) (models.Message, error) {
	data := r.baseData(to, act, t)
	data.TeamOnly = act.HasTeam() && !act.HasMember()
	data.Deadline = act.DateDeadline
	data.Note = htmlsanitize.PrepareForDisplay(act.Note)
	if author != nil {
		data.ActorName = author.Name
	}
	return r.Notify(ctx, to, TemplateAssigned, act, t, data, author)
}

// NotifyDone tells to that act was marked done by author.
func (r *Router) NotifyDone(ctx context.Context, to Recipient, act models.Activity, t Target, author Recipient, feedback string) (models.Message, error) {
	data := r.baseData(to, act, t)
	data.ActorName = author.Name
	data.Feedback = feedback
	return r.Notify(ctx, to, TemplateDone, act, t, data, &author)
}

// Notify renders tmpl in the recipient's language and posts it to the record
// thread addressed to the recipient's partner. A render failure is returned
// and nothing is posted.
func (r *Router) Notify(ctx context.Context, to Recipient, tmpl string, act models.Activity, t Target, data Data, author *Recipient) (models.Message, error) {
	if to.PartnerID.IsZero() {
		return models.Message{}, fmt.Errorf("notify user %s: %w", to.UserID.Hex(), ErrNoPartner)
	}

	body, err := r.renderer.Render(to.Lang, tmpl, data)
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ResModel:         act.ResModel,
		ResID:            act.ResID,
		Kind:             models.MessageNotification,
		PartnerIDs:       []primitive.ObjectID{to.PartnerID},
		Subject:          Subject(act, t),
		Body:             body,
		ModelDescription: t.ModelDescription,
		TrackingID:       uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
	}
	if author != nil && !author.PartnerID.IsZero() {
		aid := author.PartnerID
		msg.AuthorID = &aid
	}

	posted, err := r.thread.Post(ctx, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("post notification: %w", err)
	}

	r.log.Debug("activity notification posted",
		zap.String("template", tmpl),
		zap.String("activity_id", act.ID.Hex()),
		zap.String("user_id", to.UserID.Hex()),
		zap.String("tracking_id", posted.TrackingID))

	r.mail(to, posted, data)
	return posted, nil
}

func (r *Router) mail(to Recipient, m models.Message, data Data) {
	if r.outbox == nil || to.Email == "" {
		return
	}
	email := mailer.BuildNotificationEmail(mailer.NotificationEmailData{
		Subject:   m.Subject,
		Body:      m.Body,
		Link:      data.Link,
		LinkLabel: data.RecordName,
	})
	email.To = to.Email
	if !r.outbox.Enqueue(email) {
		r.log.Warn("notification email dropped",
			zap.String("tracking_id", m.TrackingID),
			zap.String("user_id", to.UserID.Hex()))
	}
}

func (r *Router) baseData(to Recipient, act models.Activity, t Target) Data {
	name := act.Summary
	if name == "" {
		name = t.TypeName
	}
	return Data{
		RecipientName:    to.Name,
		ActivityName:     name,
		ModelDescription: t.ModelDescription,
		RecordName:       t.Record.DisplayName,
		TeamName:         t.TeamName,
		Link:             r.Link(act.ResModel, act.ResID),
	}
}
