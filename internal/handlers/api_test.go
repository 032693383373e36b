package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/handlers"
	"malkhana-backend/internal/health"
	apphttp "malkhana-backend/internal/http"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/middleware"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/repositories/memstore"
	"malkhana-backend/internal/services"
	"malkhana-backend/internal/storage"
	"malkhana-backend/internal/tracking"
)

const adminPassword = "admin-pass"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	staff   *services.StaffService
}

func newServer(t *testing.T, policy models.LifecyclePolicy) *testServer {
	t.Helper()
	log := logger.Nop()
	db := memstore.New()
	blobs := storage.NewMemoryStore("https://blobs.test")
	jwtManager := auth.NewJWTManager("test-secret", "malkhana-test", 1)

	staffService := services.NewStaffService(db.Staff(), jwtManager, log)
	if _, err := staffService.SeedAdmin(context.Background(), adminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	router := apphttp.NewRouter(
		handlers.NewAuthHandler(staffService, false, log),
		handlers.NewIncidentHandler(services.NewIncidentService(db.Incidents(), policy, log), log),
		handlers.NewEvidenceHandler(services.NewEvidenceService(db.Evidence(), blobs, policy, log), 12, log),
		handlers.NewTransferHandler(services.NewTransferService(db.Transfers(), db.Evidence(), policy, log), log),
		handlers.NewClosureHandler(services.NewClosureService(db.Closures(), policy, log), log),
		handlers.NewReportHandler(services.NewReportService(db.Reports(), log), log),
		handlers.NewHealthHandler(health.NewHealthChecker(db, nil, blobs)),
		middleware.NewAuthMiddleware(jwtManager, db.Staff(), nil, log),
	)
	return &testServer{t: t, handler: router, staff: staffService}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("decode %s %s: %v", req.Method, req.URL.Path, err)
		}
	}
	return rec, env
}

func (s *testServer) login(badge, password string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/staff/login", "", map[string]string{"badgeNumber": badge, "password": password})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d (%s)", badge, rec.Code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	decode(s.t, env.Data, &data)
	return data.Token
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestCustodyWorkflow(t *testing.T) {
	s := newServer(t, models.StrictPolicy())
	admin := s.login(services.SeedAdminBadge, adminPassword)

	rec, _ := s.do(http.MethodPost, "/api/v1/staff/register", admin, map[string]string{
		"fullName": "Ravi Kumar", "badgeNumber": "ka77", "password": "officer1", "stationAssignment": "Central",
	})
	expectStatus(t, rec, http.StatusCreated)
	officer := s.login("KA77", "officer1")

	// Incident
	rec, env := s.do(http.MethodPost, "/api/v1/incidents", officer, map[string]interface{}{
		"registrationStation": "Central",
		"firNumber":           "12/2025",
		"registrationYear":    2025,
		"firFilingDate":       "2025-01-10",
		"evidenceSeizureDate": "2025-01-11",
		"applicableSections":  "IPC 379",
	})
	expectStatus(t, rec, http.StatusCreated)
	if env.Message != "Incident registered successfully" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	var created struct {
		Incident models.Incident `json:"incident"`
	}
	decode(t, env.Data, &created)
	incidentID := created.Incident.ID.String()
	if created.Incident.CurrentStatus != models.IncidentActive || created.Incident.AssignedInvestigator.BadgeNumber != "KA77" {
		t.Fatalf("unexpected incident %+v", created.Incident)
	}

	// Evidence with photograph
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	for k, v := range map[string]string{
		"incidentRef":     incidentID,
		"itemCategory":    "ELECTRONICS",
		"associatedParty": "SUSPECT",
		"itemDescription": "Phone",
		"quantity":        "1",
	} {
		mw.WriteField(k, v)
	}
	part, _ := mw.CreateFormFile("photograph", "phone.png")
	part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evidence", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+officer)
	rec, env = s.serve(req)
	expectStatus(t, rec, http.StatusCreated)
	var registered struct {
		Item models.EvidenceItem `json:"evidenceItem"`
	}
	decode(t, env.Data, &registered)
	item := registered.Item
	if item.TrackingQRCode == nil || item.PhotographURL == nil || !strings.HasSuffix(*item.PhotographURL, ".png") {
		t.Fatalf("evidence missing artifacts: %+v", item)
	}

	// Tracking code scan
	rec, _ = s.do(http.MethodGet, "/api/v1/evidence/track?code="+tracking.Payload(item.ID), officer, nil)
	expectStatus(t, rec, http.StatusOK)

	// Transfer and history
	rec, _ = s.do(http.MethodPost, "/api/v1/transfers", officer, map[string]string{
		"evidenceRef": item.ID.String(), "destinationLocation": "Forensic Lab", "transferPurpose": "FORENSIC_LAB",
	})
	expectStatus(t, rec, http.StatusCreated)
	rec, env = s.do(http.MethodGet, "/api/v1/transfers/evidence/"+item.ID.String(), officer, nil)
	expectStatus(t, rec, http.StatusOK)
	var meta struct {
		Count int `json:"count"`
	}
	decode(t, env.Meta, &meta)
	if meta.Count != 1 {
		t.Fatalf("expected history length 1, got %d", meta.Count)
	}

	// Custody PDF
	rec, _ = s.do(http.MethodGet, "/api/v1/transfers/evidence/"+item.ID.String()+"/report.pdf", officer, nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}

	// No closure yet
	rec, env = s.do(http.MethodGet, "/api/v1/closures/incident/"+incidentID, officer, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if env.Message != "No closure record found for this incident" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	// Closing is admin only
	closeBody := map[string]string{
		"incidentRef": incidentID, "dispositionMethod": "COURT_RETENTION", "closureDate": "2025-06-15",
	}
	rec, _ = s.do(http.MethodPost, "/api/v1/closures", officer, closeBody)
	expectStatus(t, rec, http.StatusForbidden)
	rec, _ = s.do(http.MethodPost, "/api/v1/closures", admin, closeBody)
	expectStatus(t, rec, http.StatusCreated)

	rec, env = s.do(http.MethodGet, "/api/v1/incidents/"+incidentID, officer, nil)
	expectStatus(t, rec, http.StatusOK)
	var fetched struct {
		Incident models.Incident `json:"incident"`
	}
	decode(t, env.Data, &fetched)
	if fetched.Incident.CurrentStatus != models.IncidentClosed {
		t.Fatalf("incident not closed")
	}
	rec, _ = s.do(http.MethodGet, "/api/v1/closures/incident/"+incidentID, officer, nil)
	expectStatus(t, rec, http.StatusOK)

	// Strict policy: second closure and new transfers are rejected
	rec, _ = s.do(http.MethodPost, "/api/v1/closures", admin, closeBody)
	expectStatus(t, rec, http.StatusConflict)
	rec, _ = s.do(http.MethodPost, "/api/v1/transfers", officer, map[string]string{
		"evidenceRef": item.ID.String(), "destinationLocation": "Court", "transferPurpose": "COURT_PRODUCTION",
	})
	expectStatus(t, rec, http.StatusConflict)

	// Metrics
	rec, env = s.do(http.MethodGet, "/api/v1/incidents/metrics", officer, nil)
	expectStatus(t, rec, http.StatusOK)
	var metrics struct {
		Metrics map[string]int `json:"metrics"`
	}
	decode(t, env.Data, &metrics)
	if metrics.Metrics["totalIncidents"] != 1 || metrics.Metrics["closedIncidents"] != 1 || metrics.Metrics["activeIncidents"] != 0 {
		t.Fatalf("unexpected metrics %v", metrics.Metrics)
	}

	// Reports are admin only
	rec, _ = s.do(http.MethodGet, "/api/v1/reports/overview", officer, nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec, _ = s.do(http.MethodGet, "/api/v1/reports/overview", admin, nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestAuthEndpoints(t *testing.T) {
	s := newServer(t, models.StrictPolicy())

	rec, env := s.do(http.MethodPost, "/api/v1/staff/login", "", map[string]string{"badgeNumber": "ADMIN001", "password": "nope"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Success || env.Message != "Invalid credentials provided" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	rec, _ = s.do(http.MethodGet, "/api/v1/incidents", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	// Cookie based session
	rec, _ = s.do(http.MethodPost, "/api/v1/staff/login", "", map[string]string{"badgeNumber": "admin001", "password": adminPassword})
	expectStatus(t, rec, http.StatusOK)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected HTTP-only access token cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff/profile", nil)
	req.AddCookie(cookie)
	rec, env = s.serve(req)
	expectStatus(t, rec, http.StatusOK)
	var profile struct {
		Staff map[string]interface{} `json:"staff"`
	}
	decode(t, env.Data, &profile)
	if profile.Staff["badgeNumber"] != "ADMIN001" {
		t.Fatalf("unexpected profile %v", profile.Staff)
	}
	if _, leaked := profile.Staff["passwordHash"]; leaked {
		t.Fatalf("password hash leaked")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/staff/logout", nil)
	req.AddCookie(cookie)
	rec, _ = s.serve(req)
	expectStatus(t, rec, http.StatusOK)

	admin := s.login("ADMIN001", adminPassword)
	body := map[string]string{"fullName": "X", "badgeNumber": "DUP1", "password": "secret1", "stationAssignment": "S"}
	rec, _ = s.do(http.MethodPost, "/api/v1/staff/register", admin, body)
	expectStatus(t, rec, http.StatusCreated)
	body["badgeNumber"] = "dup1"
	rec, env = s.do(http.MethodPost, "/api/v1/staff/register", admin, body)
	expectStatus(t, rec, http.StatusConflict)
	if env.Message != "A staff member with this badge number already exists" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newServer(t, models.StrictPolicy())
	admin := s.login("ADMIN001", adminPassword)

	rec, _ := s.do(http.MethodGet, "/api/v1/incidents/alerts/pending?days=-1", admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec, env := s.do(http.MethodGet, "/api/v1/incidents/alerts/pending", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if env.Message != "Incidents pending more than 90 days" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	rec, _ = s.do(http.MethodGet, "/api/v1/incidents/not-a-uuid", admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec, _ = s.do(http.MethodGet, "/api/v1/incidents/5f1d7a52-3b1e-4c47-9f61-0d3f4b1c2a10", admin, nil)
	expectStatus(t, rec, http.StatusNotFound)
	rec, _ = s.do(http.MethodGet, "/api/v1/incidents/search?status=OPEN", admin, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec, env = s.do(http.MethodGet, "/api/v1/incidents/search?q=nothing", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var found struct {
		Incidents []models.Incident `json:"incidents"`
	}
	decode(t, env.Data, &found)
	if found.Incidents == nil || len(found.Incidents) != 0 {
		t.Fatalf("expected an empty incidents array")
	}

	rec, _ = s.do(http.MethodPost, "/api/v1/evidence", admin, map[string]interface{}{
		"incidentRef": "5f1d7a52-3b1e-4c47-9f61-0d3f4b1c2a10", "itemCategory": "X",
		"associatedParty": "VICTIM", "itemDescription": "d", "quantity": 1,
	})
	expectStatus(t, rec, http.StatusNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+admin)
	rec, _ = s.serve(req)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = s.do(http.MethodGet, "/api/v1/nowhere", admin, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHealthEndpoints(t *testing.T) {
	s := newServer(t, models.StrictPolicy())
	for _, path := range []string{"/health", "/health/ready"} {
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		expectStatus(t, rec, http.StatusOK)
	}
}
