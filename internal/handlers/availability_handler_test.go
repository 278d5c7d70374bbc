package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/services"
)

type stubAvailabilityService struct {
	rules         []models.AvailabilityRule
	slots         []models.AvailabilitySlot
	createdRule   *models.AvailabilityRule
	createRuleErr error
	deleteErr     error
	applyResult   int
	applyErr      error
	calls         int
	lastCoachID   int64
	lastRuleInput services.RuleInput
	lastStartDate time.Time
	lastDays      int
}

func (s *stubAvailabilityService) ListRules(_ context.Context, coachID int64) ([]models.AvailabilityRule, error) {
	s.calls++
	s.lastCoachID = coachID
	return s.rules, nil
}

func (s *stubAvailabilityService) CreateRule(_ context.Context, coachID int64, input services.RuleInput) (*models.AvailabilityRule, error) {
	s.calls++
	s.lastCoachID = coachID
	s.lastRuleInput = input
	return s.createdRule, s.createRuleErr
}

func (s *stubAvailabilityService) UpdateRule(_ context.Context, coachID, ruleID int64, input services.RuleInput) (*models.AvailabilityRule, error) {
	s.calls++
	s.lastCoachID = coachID
	s.lastRuleInput = input
	return &models.AvailabilityRule{ID: ruleID, CoachID: coachID}, nil
}

func (s *stubAvailabilityService) DeleteRule(_ context.Context, coachID, _ int64) error {
	s.calls++
	s.lastCoachID = coachID
	return s.deleteErr
}

func (s *stubAvailabilityService) ApplyRules(_ context.Context, coachID int64, startDate time.Time, days int) (int, error) {
	s.calls++
	s.lastCoachID = coachID
	s.lastStartDate = startDate
	s.lastDays = days
	return s.applyResult, s.applyErr
}

func (s *stubAvailabilityService) ListSlots(_ context.Context, coachID int64) ([]models.AvailabilitySlot, error) {
	s.calls++
	s.lastCoachID = coachID
	return s.slots, nil
}

func (s *stubAvailabilityService) CreateSlot(_ context.Context, coachID int64, startAt, endAt time.Time) (*models.AvailabilitySlot, error) {
	s.calls++
	s.lastCoachID = coachID
	return &models.AvailabilitySlot{ID: 1, CoachID: coachID, StartAt: startAt, EndAt: endAt}, nil
}

func (s *stubAvailabilityService) UpdateSlot(_ context.Context, coachID, slotID int64, startAt, endAt time.Time) (*models.AvailabilitySlot, error) {
	s.calls++
	s.lastCoachID = coachID
	return &models.AvailabilitySlot{ID: slotID, CoachID: coachID, StartAt: startAt, EndAt: endAt}, nil
}

func (s *stubAvailabilityService) DeleteSlot(_ context.Context, coachID, _ int64) error {
	s.calls++
	s.lastCoachID = coachID
	return nil
}

type stubCoachResolver struct {
	coach *models.CoachProfile
}

func (s *stubCoachResolver) GetByUserID(_ context.Context, userID int64) (*models.CoachProfile, error) {
	if s.coach == nil || s.coach.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return s.coach, nil
}

func newAvailabilityTestApp(service *stubAvailabilityService, resolver *stubCoachResolver, role, userID string) *fiber.App {
	handler := &AvailabilityHandler{service: service, coaches: resolver}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/coach/availability/rules", handler.ListRules)
	app.Post("/api/v1/coach/availability/rules", handler.CreateRule)
	app.Post("/api/v1/coach/availability/rules/apply", handler.ApplyRules)
	app.Delete("/api/v1/coach/availability/rules/:id", handler.DeleteRule)
	app.Post("/api/v1/coach/availability/slots", handler.CreateSlot)
	return app
}

func coachResolverFor(coachID, userID int64) *stubCoachResolver {
	return &stubCoachResolver{coach: &models.CoachProfile{ID: coachID, UserID: userID}}
}

func TestCreateRuleReturnsCreatedRule(t *testing.T) {
	service := &stubAvailabilityService{
		createdRule: &models.AvailabilityRule{ID: 3, CoachID: 5, Weekday: 2, StartMinutes: 540, EndMinutes: 600},
	}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/availability/rules", strings.NewReader(`{
		"weekday": 2,
		"start_minutes": 540,
		"end_minutes": 600
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 5 {
		t.Fatalf("expected coach 5, got %d", service.lastCoachID)
	}
	if service.lastRuleInput.Weekday != 2 || service.lastRuleInput.StartMinutes != 540 {
		t.Fatalf("unexpected rule input: %+v", service.lastRuleInput)
	}
}

func TestCreateRuleMapsValidationError(t *testing.T) {
	service := &stubAvailabilityService{createRuleErr: services.ErrValidation}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/availability/rules", strings.NewReader(`{
		"weekday": 9,
		"start_minutes": 540,
		"end_minutes": 600
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAvailabilityEndpointsRejectMembers(t *testing.T) {
	service := &stubAvailabilityService{}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "member", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coach/availability/rules", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.calls != 0 {
		t.Fatalf("expected service untouched, got %d calls", service.calls)
	}
}

// The role gate must halt the handler, not just write the 403: a
// forbidden caller must never reach the service.
func TestForbiddenCallersNeverReachService(t *testing.T) {
	requests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"list rules", http.MethodGet, "/api/v1/coach/availability/rules", ""},
		{"create rule", http.MethodPost, "/api/v1/coach/availability/rules",
			`{"weekday":2,"start_minutes":540,"end_minutes":600}`},
		{"apply rules", http.MethodPost, "/api/v1/coach/availability/rules/apply",
			`{"start_date":"2030-06-03","days":14}`},
		{"delete rule", http.MethodDelete, "/api/v1/coach/availability/rules/3", ""},
		{"create slot", http.MethodPost, "/api/v1/coach/availability/slots",
			`{"start_at":"2030-06-05T09:00:00Z","end_at":"2030-06-05T10:00:00Z"}`},
	}

	for _, tr := range requests {
		service := &stubAvailabilityService{}
		app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "member", "7")

		var req *http.Request
		if tr.body != "" {
			req = httptest.NewRequest(tr.method, tr.path, strings.NewReader(tr.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tr.method, tr.path, nil)
		}

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tr.name, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", tr.name, resp.StatusCode)
		}
		if service.calls != 0 {
			t.Errorf("%s: expected service untouched, got %d calls", tr.name, service.calls)
		}
	}
}

func TestAvailabilityEndpointsRejectUnknownCoachProfile(t *testing.T) {
	service := &stubAvailabilityService{}
	app := newAvailabilityTestApp(service, &stubCoachResolver{}, "coach", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coach/availability/rules", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.calls != 0 {
		t.Fatalf("expected service untouched, got %d calls", service.calls)
	}
}

func TestApplyRulesReturnsCreatedCount(t *testing.T) {
	service := &stubAvailabilityService{applyResult: 4}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/availability/rules/apply", strings.NewReader(`{
		"start_date": "2030-06-03",
		"days": 14
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastDays != 14 {
		t.Fatalf("expected 14 days, got %d", service.lastDays)
	}
	want := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	if !service.lastStartDate.Equal(want) {
		t.Fatalf("expected start date %v, got %v", want, service.lastStartDate)
	}

	var payload struct {
		Created int `json:"created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Created != 4 {
		t.Fatalf("expected created=4, got %d", payload.Created)
	}
}

func TestApplyRulesRejectsBadDate(t *testing.T) {
	app := newAvailabilityTestApp(&stubAvailabilityService{}, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/availability/rules/apply", strings.NewReader(`{
		"start_date": "next monday",
		"days": 7
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteRuleNotFoundMapsTo404(t *testing.T) {
	service := &stubAvailabilityService{deleteErr: services.ErrNotFound}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/coach/availability/rules/42", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateSlotParsesTimestamps(t *testing.T) {
	service := &stubAvailabilityService{}
	app := newAvailabilityTestApp(service, coachResolverFor(5, 7), "coach", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/availability/slots", strings.NewReader(`{
		"start_at": "2030-06-05T09:00:00Z",
		"end_at": "2030-06-05T10:00:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 5 {
		t.Fatalf("expected coach 5, got %d", service.lastCoachID)
	}
}
