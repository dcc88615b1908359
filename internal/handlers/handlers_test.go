package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/handlers"
	appmw "github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/platform/mailer"
	"github.com/doorlist/doorlist/internal/service"
	"github.com/doorlist/doorlist/pkg/auth"
	"github.com/doorlist/doorlist/pkg/events"
)

const testJWTSecret = "test-secret"

// ---------- Mocks ----------

// mockMailer is safe for concurrent sends; pass delivery is dispatched
// off the request goroutine, so tests wait on passSent.
type mockMailer struct {
	mu          sync.Mutex
	lastTo      string
	lastSubject string
	sent        int
	sendErr     error
	passSent    chan string
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string, attachments ...mailer.Attachment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.lastSubject = subject
	m.sent++
	return "mock-id", m.sendErr
}

func (m *mockMailer) SendGuestPass(toEmail, guestName, eventTitle string, qrPNG []byte) error {
	m.mu.Lock()
	m.lastTo = toEmail
	m.sent++
	err := m.sendErr
	m.mu.Unlock()
	if m.passSent != nil {
		m.passSent <- toEmail
	}
	return err
}

type mockEventRepo struct {
	events map[uuid.UUID]*domain.Event
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[uuid.UUID]*domain.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, orgID uuid.UUID, req *domain.CreateEventRequest) (*domain.Event, error) {
	event := &domain.Event{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		Active:         true,
		Type:           req.Type,
		Settings:       req.Settings,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	return m.events[id], nil
}

func (m *mockEventRepo) ListByOrg(_ context.Context, orgID uuid.UUID, limit, offset int) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.events {
		if e.OrganizationID == orgID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListActive(_ context.Context, limit, offset int) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.events {
		if e.Active {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) Update(_ context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	e.UpdatedAt = time.Now()
	return e, nil
}

func (m *mockEventRepo) Archive(_ context.Context, id uuid.UUID) (bool, error) {
	e, ok := m.events[id]
	if !ok || !e.Active {
		return false, nil
	}
	e.Active = false
	return true, nil
}

type mockGuestRepo struct {
	guests map[uuid.UUID]*domain.Guest
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{guests: make(map[uuid.UUID]*domain.Guest)}
}

func (m *mockGuestRepo) Create(_ context.Context, g *domain.Guest) (*domain.Guest, error) {
	stored := *g
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.guests[g.ID] = &stored
	out := stored
	return &out, nil
}

func (m *mockGuestRepo) GetByEventAndID(_ context.Context, eventID, id uuid.UUID) (*domain.Guest, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return nil, nil
	}
	out := *g
	return &out, nil
}

func (m *mockGuestRepo) ListByEvent(_ context.Context, eventID uuid.UUID, limit, offset int) ([]domain.Guest, error) {
	var out []domain.Guest
	for _, g := range m.guests {
		if g.EventID == eventID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockGuestRepo) CountByEvent(_ context.Context, eventID uuid.UUID) (int, error) {
	n := 0
	for _, g := range m.guests {
		if g.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *mockGuestRepo) CheckIn(_ context.Context, eventID, id uuid.UUID, at time.Time) (*domain.Guest, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID || g.CheckedIn {
		return nil, nil
	}
	g.CheckedIn = true
	g.CheckedInAt = &at
	g.UpdatedAt = at
	out := *g
	return &out, nil
}

func (m *mockGuestRepo) Approve(_ context.Context, eventID, id uuid.UUID) (*domain.Guest, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return nil, nil
	}
	g.IsApproved = true
	g.UpdatedAt = time.Now()
	out := *g
	return &out, nil
}

type mockIdempotencyRepo struct {
	records map[string]uuid.UUID
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{records: make(map[string]uuid.UUID)}
}

func (m *mockIdempotencyRepo) CheckOrCreate(_ context.Context, key string, guestID uuid.UUID) (uuid.UUID, error) {
	if existing, ok := m.records[key]; ok {
		return existing, nil
	}
	if guestID != uuid.Nil {
		m.records[key] = guestID
	}
	return uuid.Nil, nil
}

func (m *mockIdempotencyRepo) CleanupExpired(context.Context) (int64, error) { return 0, nil }

// mockOrgRepo only tracks memberships; the rest of the interface is
// unused by the routes under test.
type mockOrgRepo struct {
	roles map[uuid.UUID]map[uuid.UUID]domain.OrgRole // orgID -> userID -> role
}

func newMockOrgRepo() *mockOrgRepo {
	return &mockOrgRepo{roles: make(map[uuid.UUID]map[uuid.UUID]domain.OrgRole)}
}

func (m *mockOrgRepo) grant(orgID, userID uuid.UUID, role domain.OrgRole) {
	if m.roles[orgID] == nil {
		m.roles[orgID] = make(map[uuid.UUID]domain.OrgRole)
	}
	m.roles[orgID][userID] = role
}

func (m *mockOrgRepo) RoleOf(_ context.Context, orgID, userID uuid.UUID) (domain.OrgRole, error) {
	return m.roles[orgID][userID], nil
}

func (m *mockOrgRepo) Create(_ context.Context, ownerID uuid.UUID, org *domain.Organization) (*domain.Organization, error) {
	return org, nil
}
func (m *mockOrgRepo) GetByID(context.Context, uuid.UUID) (*domain.Organization, error) {
	return &domain.Organization{}, nil
}
func (m *mockOrgRepo) GetBySlug(context.Context, string) (*domain.Organization, error) {
	return nil, nil
}
func (m *mockOrgRepo) ListByUser(context.Context, uuid.UUID) ([]domain.Organization, error) {
	return nil, nil
}
func (m *mockOrgRepo) Update(context.Context, uuid.UUID, domain.OrgPatch) (*domain.Organization, error) {
	return nil, nil
}
func (m *mockOrgRepo) AddMember(context.Context, uuid.UUID, uuid.UUID, domain.OrgRole) error {
	return nil
}
func (m *mockOrgRepo) ListMembers(context.Context, uuid.UUID) ([]domain.Membership, error) {
	return nil, nil
}

// ---------- Test Setup ----------

type testEnv struct {
	server     *httptest.Server
	eventRepo  *mockEventRepo
	guestRepo  *mockGuestRepo
	orgRepo    *mockOrgRepo
	mailer     *mockMailer
	orgID      uuid.UUID
	operatorID uuid.UUID
	token      string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	eventRepo := newMockEventRepo()
	guestRepo := newMockGuestRepo()
	orgRepo := newMockOrgRepo()
	idempotencyRepo := newMockIdempotencyRepo()
	mail := &mockMailer{passSent: make(chan string, 8)}
	bus := events.NoopEventBus{}

	eventSvc := service.NewEventService(eventRepo, guestRepo, orgRepo, bus)
	registrationSvc := service.NewRegistrationService(eventRepo, guestRepo, idempotencyRepo, bus, mail)
	checkinSvc := service.NewCheckinService(eventRepo, guestRepo, bus)

	eventHandler := handlers.NewEventHandler(eventSvc)
	registrationHandler := handlers.NewRegistrationHandler(registrationSvc)
	checkinHandler := handlers.NewCheckinHandler(checkinSvc, eventSvc)

	r := chi.NewRouter()
	r.Route("/v1/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListActive)
		r.Get("/{eventID}", eventHandler.GetPublic)
		r.Get("/{eventID}/guest-count", checkinHandler.GuestCount)
		r.Post("/{eventID}/register", registrationHandler.Register)
		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireJWT(testJWTSecret))
			r.Get("/{eventID}/guests", eventHandler.ListGuests)
			r.Post("/{eventID}/guests/{guestID}/approve", eventHandler.ApproveGuest)
			r.Post("/{eventID}/checkin", checkinHandler.CheckIn)
		})
	})

	orgID := uuid.New()
	operatorID := uuid.New()
	orgRepo.grant(orgID, operatorID, domain.RoleMember)

	token, err := auth.NewAccessToken(operatorID.String(), "door@example.com", "Door Staff", "organizer", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	env := &testEnv{
		server:     httptest.NewServer(r),
		eventRepo:  eventRepo,
		guestRepo:  guestRepo,
		orgRepo:    orgRepo,
		mailer:     mail,
		orgID:      orgID,
		operatorID: operatorID,
		token:      token,
	}
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) addEvent(t *testing.T, eventType domain.EventType, active bool, settings *domain.EventSettings) *domain.Event {
	t.Helper()
	event := &domain.Event{
		ID:             uuid.New(),
		OrganizationID: env.orgID,
		Title:          "Warehouse Night",
		StartsAt:       time.Now().Add(24 * time.Hour),
		Active:         active,
		Type:           eventType,
		Settings:       settings,
	}
	env.eventRepo.events[event.ID] = event
	return event
}

func postJSON(t *testing.T, url string, headers map[string]string, body any, wantStatus int) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("status = %d, want %d", resp.StatusCode, wantStatus)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

type registrationResult struct {
	Success          bool      `json:"success"`
	GuestID          uuid.UUID `json:"guest_id"`
	QRCode           string    `json:"qr_code"`
	RequiresApproval bool      `json:"requires_approval"`
}

type checkinResult struct {
	Success          bool          `json:"success"`
	AlreadyCheckedIn bool          `json:"already_checked_in"`
	Guest            *domain.Guest `json:"guest"`
}

// ---------- Tests ----------

func TestRegister_CreatesGuestWithPass(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)

	body := map[string]string{"name": "Ana Silva", "phone": "+15550001111"}
	resp := postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/register", nil, body, http.StatusCreated)

	var result registrationResult
	decodeBody(t, resp, &result)

	if !result.Success || result.GuestID == uuid.Nil {
		t.Fatal("expected success with a guest id")
	}
	if result.RequiresApproval {
		t.Fatal("event without settings must auto-approve")
	}
	png, err := base64.StdEncoding.DecodeString(result.QRCode)
	if err != nil || len(png) == 0 {
		t.Fatalf("expected base64 png pass, got err=%v len=%d", err, len(png))
	}

	stored := env.guestRepo.guests[result.GuestID]
	if stored == nil {
		t.Fatal("guest not stored")
	}
	if stored.CheckedIn || stored.CheckedInAt != nil {
		t.Fatal("new guest must not be checked in")
	}
	if !stored.IsApproved {
		t.Fatal("new guest must be approved when no approval is required")
	}
}

func TestRegister_ApprovalRequiredEvent(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, &domain.EventSettings{RequiresApproval: true})

	body := map[string]string{"name": "Ben Ochoa", "phone": "+15550002222"}
	resp := postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/register", nil, body, http.StatusCreated)

	var result registrationResult
	decodeBody(t, resp, &result)

	if !result.RequiresApproval {
		t.Fatal("expected requires_approval to be set")
	}
	stored := env.guestRepo.guests[result.GuestID]
	if stored.IsApproved {
		t.Fatal("guest must start unapproved")
	}
}

func TestRegister_RejectsClosedEvents(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name  string
		event *domain.Event
	}{
		{"archived event", env.addEvent(t, domain.EventGuestList, false, nil)},
		{"regular event without guest list", env.addEvent(t, domain.EventRegular, true, nil)},
	}

	body := map[string]string{"name": "Cara", "phone": "+15550003333"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, env.server.URL+"/v1/events/"+tt.event.ID.String()+"/register", nil, body, http.StatusConflict)
			resp.Body.Close()
		})
	}

	if len(env.guestRepo.guests) != 0 {
		t.Fatal("no guest may be created for closed events")
	}
}

func TestRegister_IdempotencyKeyReplays(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String() + "/register"
	headers := map[string]string{"Idempotency-Key": "retry-1"}
	body := map[string]string{"name": "Dana", "phone": "+15550004444"}

	var first registrationResult
	decodeBody(t, postJSON(t, url, headers, body, http.StatusCreated), &first)

	var second registrationResult
	decodeBody(t, postJSON(t, url, headers, body, http.StatusOK), &second)

	if first.GuestID != second.GuestID {
		t.Fatalf("replay returned a different guest: %s vs %s", first.GuestID, second.GuestID)
	}
	if len(env.guestRepo.guests) != 1 {
		t.Fatalf("expected exactly one guest, got %d", len(env.guestRepo.guests))
	}
}

func TestRegister_ReplayAfterEventArchived(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String() + "/register"
	headers := map[string]string{"Idempotency-Key": "retry-2"}
	body := map[string]string{"name": "Lena", "phone": "+15550014444"}

	var first registrationResult
	decodeBody(t, postJSON(t, url, headers, body, http.StatusCreated), &first)

	event.Active = false

	// the stored guest comes back even though new registrations are closed
	var replay registrationResult
	decodeBody(t, postJSON(t, url, headers, body, http.StatusOK), &replay)
	if replay.GuestID != first.GuestID {
		t.Fatalf("replay returned a different guest: %s vs %s", replay.GuestID, first.GuestID)
	}

	// a fresh key on the archived event is still rejected
	fresh := map[string]string{"Idempotency-Key": "retry-3"}
	resp := postJSON(t, url, fresh, body, http.StatusConflict)
	resp.Body.Close()
}

func TestRegister_RejectsWhenListFull(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, &domain.EventSettings{MaxGuests: 2})
	url := env.server.URL + "/v1/events/" + event.ID.String() + "/register"

	for i := 0; i < 2; i++ {
		body := map[string]string{"name": fmt.Sprintf("Guest %d", i), "phone": fmt.Sprintf("+1555333000%d", i)}
		resp := postJSON(t, url, nil, body, http.StatusCreated)
		resp.Body.Close()
	}

	resp := postJSON(t, url, nil, map[string]string{"name": "Overflow", "phone": "+15553330009"}, http.StatusConflict)
	var denial struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &denial)
	if denial.Code != "INVALID_STATE" {
		t.Fatalf("code = %q", denial.Code)
	}
	if len(env.guestRepo.guests) != 2 {
		t.Fatalf("cap exceeded: %d guests stored", len(env.guestRepo.guests))
	}
}

func TestRegister_SendsPassWhenEmailGiven(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)

	body := map[string]string{"name": "Eve", "phone": "+15550005555", "email": "eve@example.com"}
	resp := postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/register", nil, body, http.StatusCreated)
	resp.Body.Close()

	select {
	case to := <-env.mailer.passSent:
		if to != "eve@example.com" {
			t.Fatalf("pass email went to %q", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pass email was never dispatched")
	}
}

func TestRegister_MailOutageDoesNotDelayResponse(t *testing.T) {
	env := setupTestServer(t)
	env.mailer.sendErr = fmt.Errorf("provider down")
	event := env.addEvent(t, domain.EventGuestList, true, nil)

	body := map[string]string{"name": "Noa", "phone": "+15550015555", "email": "noa@example.com"}
	start := time.Now()
	var result registrationResult
	decodeBody(t, postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/register", nil, body, http.StatusCreated), &result)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("registration blocked on mail delivery for %v", elapsed)
	}

	if env.guestRepo.guests[result.GuestID] == nil {
		t.Fatal("failed mail must not undo the registration")
	}
	select {
	case <-env.mailer.passSent:
	case <-time.After(2 * time.Second):
		t.Fatal("send was never attempted")
	}
}

func TestCheckin_ScanAndRepeatScan(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String()

	var reg registrationResult
	decodeBody(t, postJSON(t, url+"/register", nil, map[string]string{"name": "Finn", "phone": "+15550006666"}, http.StatusCreated), &reg)

	headers := map[string]string{"Authorization": "Bearer " + env.token}
	code := env.guestRepo.guests[reg.GuestID].QRPayload

	var first checkinResult
	decodeBody(t, postJSON(t, url+"/checkin", headers, map[string]string{"code": code}, http.StatusOK), &first)
	if !first.Success || first.AlreadyCheckedIn {
		t.Fatalf("first scan: success=%v already=%v", first.Success, first.AlreadyCheckedIn)
	}
	if first.Guest == nil || !first.Guest.CheckedIn || first.Guest.CheckedInAt == nil {
		t.Fatal("first scan must mark the guest present")
	}
	firstAt := *first.Guest.CheckedInAt

	var second checkinResult
	decodeBody(t, postJSON(t, url+"/checkin", headers, map[string]string{"code": code}, http.StatusOK), &second)
	if !second.AlreadyCheckedIn {
		t.Fatal("repeat scan must report already_checked_in")
	}
	if !second.Guest.CheckedInAt.Equal(firstAt) {
		t.Fatalf("repeat scan changed the timestamp: %v vs %v", second.Guest.CheckedInAt, firstAt)
	}
}

func TestCheckin_AcceptsBareGuestID(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String()

	var reg registrationResult
	decodeBody(t, postJSON(t, url+"/register", nil, map[string]string{"name": "Gus", "phone": "+15550007777"}, http.StatusCreated), &reg)

	headers := map[string]string{"Authorization": "Bearer " + env.token}
	var result checkinResult
	decodeBody(t, postJSON(t, url+"/checkin", headers, map[string]string{"code": reg.GuestID.String()}, http.StatusOK), &result)
	if !result.Success {
		t.Fatal("bare uuid code must check in")
	}
}

func TestCheckin_UnapprovedGuestKeepsState(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, &domain.EventSettings{RequiresApproval: true})
	url := env.server.URL + "/v1/events/" + event.ID.String()

	var reg registrationResult
	decodeBody(t, postJSON(t, url+"/register", nil, map[string]string{"name": "Hale Ito", "phone": "+15550008888"}, http.StatusCreated), &reg)

	headers := map[string]string{"Authorization": "Bearer " + env.token}
	resp := postJSON(t, url+"/checkin", headers, map[string]string{"code": reg.GuestID.String()}, http.StatusForbidden)

	var denial struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	decodeBody(t, resp, &denial)
	if denial.Code != "NOT_APPROVED" {
		t.Fatalf("code = %q", denial.Code)
	}
	if denial.Name != "Hale Ito" || denial.Phone != "+15550008888" {
		t.Fatal("denial must identify the guest at the door")
	}
	if env.guestRepo.guests[reg.GuestID].CheckedIn {
		t.Fatal("denied guest must stay checked out")
	}
}

func TestCheckin_ApproveThenAdmit(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, &domain.EventSettings{RequiresApproval: true})
	url := env.server.URL + "/v1/events/" + event.ID.String()
	headers := map[string]string{"Authorization": "Bearer " + env.token}

	var reg registrationResult
	decodeBody(t, postJSON(t, url+"/register", nil, map[string]string{"name": "Iris", "phone": "+15550009999"}, http.StatusCreated), &reg)

	resp := postJSON(t, url+"/guests/"+reg.GuestID.String()+"/approve", headers, nil, http.StatusOK)
	resp.Body.Close()

	var result checkinResult
	decodeBody(t, postJSON(t, url+"/checkin", headers, map[string]string{"code": reg.GuestID.String()}, http.StatusOK), &result)
	if !result.Success {
		t.Fatal("approved guest must check in")
	}
}

func TestCheckin_CodeFromAnotherEvent(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	other := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String()

	var reg registrationResult
	decodeBody(t, postJSON(t, env.server.URL+"/v1/events/"+other.ID.String()+"/register", nil, map[string]string{"name": "Jo", "phone": "+15551110000"}, http.StatusCreated), &reg)

	headers := map[string]string{"Authorization": "Bearer " + env.token}

	// structured payload pinned to the other event
	code := env.guestRepo.guests[reg.GuestID].QRPayload
	resp := postJSON(t, url+"/checkin", headers, map[string]string{"code": code}, http.StatusNotFound)
	resp.Body.Close()

	// bare uuid of a guest that only exists on the other event
	resp = postJSON(t, url+"/checkin", headers, map[string]string{"code": reg.GuestID.String()}, http.StatusNotFound)
	resp.Body.Close()

	if env.guestRepo.guests[reg.GuestID].CheckedIn {
		t.Fatal("guest of the other event must remain checked out")
	}
}

func TestCheckin_UnusableCode(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	headers := map[string]string{"Authorization": "Bearer " + env.token}

	resp := postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/checkin", headers, map[string]string{"code": "scribble"}, http.StatusUnprocessableEntity)

	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)
	if body.Code != "INVALID_CODE" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestCheckin_RequiresMembership(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)

	outsider, err := auth.NewAccessToken(uuid.NewString(), "x@example.com", "Outsider", "organizer", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + outsider}
	resp := postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/checkin", headers, map[string]string{"code": uuid.NewString()}, http.StatusForbidden)
	resp.Body.Close()

	// no token at all
	resp = postJSON(t, env.server.URL+"/v1/events/"+event.ID.String()+"/checkin", nil, map[string]string{"code": uuid.NewString()}, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestGuestCount_IsFreshAndUncached(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, true, nil)
	url := env.server.URL + "/v1/events/" + event.ID.String()

	for i := 0; i < 3; i++ {
		body := map[string]string{"name": fmt.Sprintf("Guest %d", i), "phone": fmt.Sprintf("+1555222000%d", i)}
		resp := postJSON(t, url+"/register", nil, body, http.StatusCreated)
		resp.Body.Close()
	}

	resp, err := http.Get(url + "/guest-count")
	if err != nil {
		t.Fatalf("get count: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control = %q", cc)
	}

	var count struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &count)
	if count.Count != 3 {
		t.Fatalf("count = %d, want 3", count.Count)
	}
}

func TestPublicEvent_HiddenWhenArchived(t *testing.T) {
	env := setupTestServer(t)
	event := env.addEvent(t, domain.EventGuestList, false, nil)

	resp, err := http.Get(env.server.URL + "/v1/events/" + event.ID.String())
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
