package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/mailer"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type memThread struct {
	posted []models.Message
	err    error
}

func (m *memThread) Post(_ context.Context, msg models.Message) (models.Message, error) {
	if m.err != nil {
		return models.Message{}, m.err
	}
	msg.ID = primitive.NewObjectID()
	m.posted = append(m.posted, msg)
	return msg, nil
}

type memOutbox struct {
	emails []mailer.Email
	full   bool
}

func (o *memOutbox) Enqueue(e mailer.Email) bool {
	if o.full {
		return false
	}
	o.emails = append(o.emails, e)
	return true
}

func newTestRouter(t *testing.T, thread Thread, outbox Outbox) *Router {
	t.Helper()
	r, err := NewRenderer("en")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return NewRouter(r, thread, zap.NewNop(), Options{BaseURL: "https://app.example.com/", Outbox: outbox})
}

func sampleActivity() (models.Activity, Target) {
	rec := models.Record{ID: primitive.NewObjectID(), ResModel: "crm.lead", DisplayName: "Acme deal"}
	act := models.Activity{
		ID:           primitive.NewObjectID(),
		ResModel:     rec.ResModel,
		ResID:        rec.ID,
		Summary:      "Call back",
		Note:         "<p>Ask about <b>pricing</b></p><script>alert(1)</script>",
		DateDeadline: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	return act, Target{Record: rec, ModelDescription: "Lead", TypeName: "Call"}
}

func TestSubject(t *testing.T) {
	act, target := sampleActivity()
	if got := Subject(act, target); got != "Acme deal: Call back" {
		t.Errorf("subject = %q", got)
	}
	act.Summary = ""
	if got := Subject(act, target); got != "Acme deal: Call" {
		t.Errorf("subject without summary = %q", got)
	}
}

func TestNotifyAssigned_PostsToThread(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()
	to := Recipient{UserID: primitive.NewObjectID(), PartnerID: primitive.NewObjectID(), Name: "Ann"}

	msg, err := r.NotifyAssigned(context.Background(), to, act, target, nil)
	if err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	if len(thread.posted) != 1 {
		t.Fatalf("expected 1 posted message, got %d", len(thread.posted))
	}
	if msg.Subject != "Acme deal: Call back" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if len(msg.PartnerIDs) != 1 || msg.PartnerIDs[0] != to.PartnerID {
		t.Errorf("partner ids = %v", msg.PartnerIDs)
	}
	if msg.ResModel != "crm.lead" || msg.ResID != act.ResID {
		t.Errorf("posted to %s/%s", msg.ResModel, msg.ResID.Hex())
	}
	if msg.ModelDescription != "Lead" || msg.Kind != models.MessageNotification {
		t.Errorf("unexpected message fields: %+v", msg)
	}
	if msg.TrackingID == "" {
		t.Error("expected a tracking id")
	}

	link := "https://app.example.com/records/crm.lead/" + act.ResID.Hex()
	for _, want := range []string{"Dear Ann,", "You have been assigned to the activity Call back on Lead.", link, "Mar 14, 2026", "<b>pricing</b>"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if strings.Contains(msg.Body, "<script>") {
		t.Error("note script should be stripped")
	}
}

func TestNotifyAssigned_TeamBroadcastWording(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()
	act.TeamID = ref(primitive.NewObjectID())
	target.TeamName = "Support"

	msg, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "Bo"}, act, target, &Recipient{Name: "Carl"})
	if err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	for _, want := range []string{"Your team Support has been assigned the activity Call back on Lead.", "Assigned by Carl"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestNotify_RecipientLocale(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()

	msg, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "Anna", Lang: "hu_HU"}, act, target, nil)
	if err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	for _, want := range []string{"Kedves Anna!", "Határidő: 2026. 03. 14."} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if got := r.renderer.Locale(); got != language.English {
		t.Errorf("locale not restored: %v", got)
	}
}

func TestNotify_UnknownLocaleFallsBack(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()

	msg, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "Kai", Lang: "not a tag!"}, act, target, nil)
	if err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	if !strings.Contains(msg.Body, "Dear Kai,") {
		t.Errorf("expected English fallback:\n%s", msg.Body)
	}
}

func TestNotify_RenderFailureRestoresLocale(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()

	_, err := r.Notify(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Lang: "hu"}, "no_such_template", act, target, Data{}, nil)
	if err == nil {
		t.Fatal("expected render error")
	}
	if len(thread.posted) != 0 {
		t.Error("nothing should be posted on render failure")
	}
	if got := r.renderer.Locale(); got != language.English {
		t.Errorf("locale not restored after failure: %v", got)
	}
}

func TestNotify_NoPartner(t *testing.T) {
	r := newTestRouter(t, &memThread{}, nil)
	act, target := sampleActivity()

	_, err := r.NotifyAssigned(context.Background(), Recipient{UserID: primitive.NewObjectID()}, act, target, nil)
	if !errors.Is(err, ErrNoPartner) {
		t.Fatalf("expected ErrNoPartner, got %v", err)
	}
}

func TestNotify_ThreadError(t *testing.T) {
	r := newTestRouter(t, &memThread{err: errors.New("write failed")}, nil)
	act, target := sampleActivity()

	_, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID()}, act, target, nil)
	if err == nil || !strings.Contains(err.Error(), "write failed") {
		t.Fatalf("expected thread error, got %v", err)
	}
}

func TestNotifyDone(t *testing.T) {
	thread := &memThread{}
	r := newTestRouter(t, thread, nil)
	act, target := sampleActivity()
	author := Recipient{PartnerID: primitive.NewObjectID(), Name: "Carl"}

	msg, err := r.NotifyDone(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "Ann"}, act, target, author, "Customer agreed")
	if err != nil {
		t.Fatalf("NotifyDone failed: %v", err)
	}
	for _, want := range []string{"Carl marked the activity Call back on Lead as done.", "Feedback:", "Customer agreed"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if msg.AuthorID == nil || *msg.AuthorID != author.PartnerID {
		t.Errorf("author = %v", msg.AuthorID)
	}
}

func TestNotify_EmailFanOut(t *testing.T) {
	outbox := &memOutbox{}
	r := newTestRouter(t, &memThread{}, outbox)
	act, target := sampleActivity()

	if _, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "Ann", Email: "ann@example.com"}, act, target, nil); err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	if _, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Name: "NoMail"}, act, target, nil); err != nil {
		t.Fatalf("NotifyAssigned failed: %v", err)
	}
	if len(outbox.emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(outbox.emails))
	}
	if outbox.emails[0].To != "ann@example.com" || outbox.emails[0].Subject != "Acme deal: Call back" {
		t.Errorf("unexpected email: %+v", outbox.emails[0])
	}

	outbox.full = true
	if _, err := r.NotifyAssigned(context.Background(), Recipient{PartnerID: primitive.NewObjectID(), Email: "ann@example.com"}, act, target, nil); err != nil {
		t.Fatalf("a full outbox must not fail the notification: %v", err)
	}
}
