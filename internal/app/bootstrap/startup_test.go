package bootstrap

import (
	"testing"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/activityteams/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSystemUser_CreatesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureSystemUser(ctx, deps, " System@Localhost ", testLogger()); err != nil {
		t.Fatalf("ensureSystemUser failed: %v", err)
	}
	if err := ensureSystemUser(ctx, deps, "system@localhost", testLogger()); err != nil {
		t.Fatalf("second ensureSystemUser failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": models.SuperuserID}).Decode(&user); err != nil {
		t.Fatalf("system account not found: %v", err)
	}
	if user.Email != "system@localhost" {
		t.Errorf("email: got %q", user.Email)
	}
	if user.PartnerID == nil {
		t.Fatal("system account needs a partner identity")
	}
	n, _ := db.Collection("partners").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("expected 1 partner, got %d", n)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "Anna", "anna@example.com")

	if err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, "ANNA@example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, "boss@example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "boss@example.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != "admin" || user.Status != "active" || user.AuthMethod != "trust" {
		t.Errorf("unexpected admin: role=%q status=%q auth=%q", user.Role, user.Status, user.AuthMethod)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoMaxPoolSize: 100,
		MongoMinPoolSize: 10,
		SessionKey:       "a-real-production-key-0123456789abcdef",
		DefaultLang:      "hu_HU",
		AuditLogAuth:     "all",
		AuditLogActivity: "db",
		AuditLogSecurity: "",
	}
	core := &config.CoreConfig{Env: "prod"}

	if err := ValidateConfig(core, valid, testLogger()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"bad uri", func(c *AppConfig) { c.MongoURI = "http://nope" }},
		{"pool sizes", func(c *AppConfig) { c.MongoMinPoolSize = 200 }},
		{"bad lang", func(c *AppConfig) { c.DefaultLang = "not a language" }},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogActivity = "sometimes" }},
		{"dev key in prod", func(c *AppConfig) { c.SessionKey = "dev-only-change-me-please-0123456789ABCDEF" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := ValidateConfig(core, cfg, testLogger()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMailConfig(t *testing.T) {
	cfg := mailConfig(AppConfig{MailSMTPHost: "", MailFrom: "noreply@example.com"})
	if cfg.Enabled() {
		t.Error("blank host must disable mail")
	}
	cfg = mailConfig(AppConfig{MailSMTPHost: "localhost", MailSMTPPort: 1025, MailFrom: "noreply@example.com"})
	if !cfg.Enabled() || cfg.Port != 1025 || cfg.Timeout <= 0 {
		t.Errorf("unexpected mail config: %+v", cfg)
	}
}

func TestLoginLimiter(t *testing.T) {
	if loginLimiter(AppConfig{}) != nil {
		t.Error("zero limits should disable throttling")
	}
	ll := loginLimiter(AppConfig{LoginMaxPerEmail: 3})
	if ll == nil {
		t.Fatal("expected a limiter")
	}
	ll.Stop()
}
