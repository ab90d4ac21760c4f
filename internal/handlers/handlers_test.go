package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/handlers"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/services"
	"github.com/assoportal/pollengine/internal/testutil"
)

// testServer bundles the router with helpers for authenticated requests
type testServer struct {
	h      *handlers.Handlers
	router chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	settingsSvc := services.NewSettingsService(log, repo)
	lifecycleSvc := services.NewLifecycleService(log, repo)
	submissionSvc := services.NewSubmissionService(log, repo)
	resultsSvc := services.NewResultsService(log, repo)
	shareSvc := services.NewShareService(log, repo, settingsSvc)

	h := handlers.NewForTesting(lifecycleSvc, submissionSvc, resultsSvc, settingsSvc, shareSvc)
	return &testServer{h: h, router: h.Router()}
}

func (s *testServer) memberToken(t *testing.T, memberID string) string {
	t.Helper()
	token, err := s.h.Auth.SignToken(auth.Identity{MemberID: memberID, Role: auth.RoleMember}, time.Hour)
	if err != nil {
		t.Fatalf("SignToken failed: %v", err)
	}
	return token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, ok := s.h.Auth.LoginAdmin("test-password")
	if !ok {
		t.Fatal("admin login failed")
	}
	return token
}

// do performs a request against the router; token may be empty for anonymous
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

// errorCode extracts the code field from an error envelope
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error envelope %q: %v", rec.Body.String(), err)
	}
	return envelope.Code
}

func voteInput(voteType, mode string, options ...string) map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"title":             "General meeting date",
		"type":              voteType,
		"start_date":        now.Add(-time.Hour).Format(time.RFC3339),
		"end_date":          now.Add(time.Hour).Format(time.RFC3339),
		"show_results_mode": mode,
		"options":           options,
	}
}

// createActiveVote creates and activates a vote, returning its id and option ids
func (s *testServer) createActiveVote(t *testing.T, token string, input map[string]interface{}) (string, []string) {
	t.Helper()
	rec := s.do(t, "POST", "/api/votes", token, input)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Vote struct {
			ID string `json:"id"`
		} `json:"vote"`
		Options []struct {
			ID string `json:"id"`
		} `json:"options"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rec = s.do(t, "POST", "/api/votes/"+created.Vote.ID+"/transition", token, map[string]string{"status": "active"})
	if rec.Code != http.StatusOK {
		t.Fatalf("transition: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ids := make([]string, len(created.Options))
	for i, opt := range created.Options {
		ids[i] = opt.ID
	}
	return created.Vote.ID, ids
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCreateVote_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/votes", "", voteInput("yes_no", "immediate", "Yes", "No"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCreateAndGetVote(t *testing.T) {
	s := newTestServer(t)
	token := s.memberToken(t, "m-1")

	rec := s.do(t, "POST", "/api/votes", token, voteInput("yes_no", "immediate", "Yes", "No"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Vote struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"vote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Vote.Status != "draft" {
		t.Errorf("expected draft, got %q", created.Vote.Status)
	}

	rec = s.do(t, "GET", "/api/votes/"+created.Vote.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for public read, got %d", rec.Code)
	}

	rec = s.do(t, "GET", "/api/votes", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for list, got %d", rec.Code)
	}
}

func TestCreateVote_ValidationError(t *testing.T) {
	s := newTestServer(t)
	token := s.memberToken(t, "m-1")

	rec := s.do(t, "POST", "/api/votes", token, voteInput("yes_no", "immediate", "Yes", "No", "Abstain"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", errorCode(t, rec))
	}
}

func TestGetVote_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/api/votes/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errorCode(t, rec) != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", errorCode(t, rec))
	}
}

func TestTransition_IllegalEdge(t *testing.T) {
	s := newTestServer(t)
	token := s.memberToken(t, "m-1")

	rec := s.do(t, "POST", "/api/votes", token, voteInput("yes_no", "immediate", "Yes", "No"))
	var created struct {
		Vote struct {
			ID string `json:"id"`
		} `json:"vote"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = s.do(t, "POST", "/api/votes/"+created.Vote.ID+"/transition", token, map[string]string{"status": "archived"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if errorCode(t, rec) != "ILLEGAL_TRANSITION" {
		t.Errorf("expected ILLEGAL_TRANSITION, got %s", errorCode(t, rec))
	}
}

func TestTransition_PermissionDenied(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")
	other := s.memberToken(t, "m-2")

	rec := s.do(t, "POST", "/api/votes", creator, voteInput("yes_no", "immediate", "Yes", "No"))
	var created struct {
		Vote struct {
			ID string `json:"id"`
		} `json:"vote"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = s.do(t, "POST", "/api/votes/"+created.Vote.ID+"/transition", other, map[string]string{"status": "active"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if errorCode(t, rec) != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", errorCode(t, rec))
	}
}

func TestSubmitResponse(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")
	voter := s.memberToken(t, "m-2")

	voteID, options := s.createActiveVote(t, creator, voteInput("yes_no", "immediate", "Yes", "No"))

	rec := s.do(t, "POST", "/api/votes/"+voteID+"/responses", voter,
		map[string]interface{}{"selected_option_ids": []string{options[0]}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var ack struct {
		VoterID string `json:"voter_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &ack)
	if ack.VoterID != "m-2" {
		t.Errorf("expected voter m-2, got %q", ack.VoterID)
	}

	rec = s.do(t, "GET", "/api/votes/"+voteID+"/responses/me", voter, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var responded struct {
		Responded bool `json:"responded"`
	}
	json.Unmarshal(rec.Body.Bytes(), &responded)
	if !responded.Responded {
		t.Error("expected responded true")
	}
}

func TestSubmitResponse_AnonymousGetsStateErrorsFirst(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")

	voteID, options := s.createActiveVote(t, creator, voteInput("yes_no", "immediate", "Yes", "No"))

	// Valid selection without a token: the auth failure is the last gate
	rec := s.do(t, "POST", "/api/votes/"+voteID+"/responses", "",
		map[string]interface{}{"selected_option_ids": []string{options[0]}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if errorCode(t, rec) != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", errorCode(t, rec))
	}

	// Bad selection without a token: selection beats auth
	rec = s.do(t, "POST", "/api/votes/"+voteID+"/responses", "",
		map[string]interface{}{"selected_option_ids": []string{"bogus"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errorCode(t, rec) != "INVALID_SELECTION" {
		t.Errorf("expected INVALID_SELECTION, got %s", errorCode(t, rec))
	}
}

func TestSubmitResponse_ClosedVote(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")

	voteID, options := s.createActiveVote(t, creator, voteInput("yes_no", "immediate", "Yes", "No"))
	rec := s.do(t, "POST", "/api/votes/"+voteID+"/transition", creator, map[string]string{"status": "closed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("close failed: %d", rec.Code)
	}

	rec = s.do(t, "POST", "/api/votes/"+voteID+"/responses", s.memberToken(t, "m-2"),
		map[string]interface{}{"selected_option_ids": []string{options[0]}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if errorCode(t, rec) != "NOT_ACTIVE" {
		t.Errorf("expected NOT_ACTIVE, got %s", errorCode(t, rec))
	}
}

func TestGetResults_VisibilityPolicy(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")
	voter := s.memberToken(t, "m-2")

	voteID, options := s.createActiveVote(t, creator, voteInput("yes_no", "afterVote", "Yes", "No"))

	// Hidden before the viewer votes
	rec := s.do(t, "GET", "/api/votes/"+voteID+"/results", voter, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if errorCode(t, rec) != "RESULTS_HIDDEN" {
		t.Errorf("expected RESULTS_HIDDEN, got %s", errorCode(t, rec))
	}

	// Visible after voting
	s.do(t, "POST", "/api/votes/"+voteID+"/responses", voter,
		map[string]interface{}{"selected_option_ids": []string{options[0]}})
	rec = s.do(t, "GET", "/api/votes/"+voteID+"/results", voter, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after voting, got %d", rec.Code)
	}

	var result struct {
		TotalResponses int `json:"total_responses"`
	}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.TotalResponses != 1 {
		t.Errorf("expected 1 response, got %d", result.TotalResponses)
	}
}

func TestGetResults_AdminBypassesPolicy(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")

	voteID, _ := s.createActiveVote(t, creator, voteInput("yes_no", "afterClose", "Yes", "No"))

	rec := s.do(t, "GET", "/api/votes/"+voteID+"/results", s.adminToken(t), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteVote(t *testing.T) {
	s := newTestServer(t)
	token := s.memberToken(t, "m-1")

	rec := s.do(t, "POST", "/api/votes", token, voteInput("yes_no", "immediate", "Yes", "No"))
	var created struct {
		Vote struct {
			ID string `json:"id"`
		} `json:"vote"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = s.do(t, "DELETE", "/api/votes/"+created.Vote.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = s.do(t, "GET", "/api/votes/"+created.Vote.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/auth/login", "", map[string]string{"password": "test-password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rec.Body.Bytes(), &login)
	if login.Token == "" {
		t.Error("expected a session token")
	}

	rec = s.do(t, "GET", "/api/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me struct {
		Role string `json:"role"`
	}
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me.Role != "admin" {
		t.Errorf("expected admin role, got %q", me.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/auth/login", "", map[string]string{"password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAdminEndpoints_RequireAdmin(t *testing.T) {
	s := newTestServer(t)
	memberTok := s.memberToken(t, "m-1")

	for _, path := range []string{"/api/admin/stats", "/api/admin/settings"} {
		rec := s.do(t, "GET", path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s anonymous: expected 401, got %d", path, rec.Code)
		}
		rec = s.do(t, "GET", path, memberTok, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s member: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestAdminStatsAndSettings(t *testing.T) {
	s := newTestServer(t)
	adminTok := s.adminToken(t)

	rec := s.do(t, "GET", "/api/admin/stats", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}

	rec = s.do(t, "PUT", "/api/admin/settings", adminTok,
		map[string]interface{}{"base_url": "https://portal.example.org"})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, "GET", "/api/admin/settings", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: expected 200, got %d", rec.Code)
	}
	var settings map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &settings)
	if settings["base_url"] != "https://portal.example.org" {
		t.Errorf("unexpected base_url: %v", settings["base_url"])
	}
}

func TestShareAndQR(t *testing.T) {
	s := newTestServer(t)
	creator := s.memberToken(t, "m-1")
	adminTok := s.adminToken(t)

	rec := s.do(t, "POST", "/api/votes", creator, voteInput("yes_no", "immediate", "Yes", "No"))
	var created struct {
		Vote struct {
			ID string `json:"id"`
		} `json:"vote"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	// No base_url configured yet
	rec = s.do(t, "GET", "/api/votes/"+created.Vote.ID+"/share", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without base_url, got %d", rec.Code)
	}

	s.do(t, "PUT", "/api/admin/settings", adminTok,
		map[string]interface{}{"base_url": "https://portal.example.org"})

	rec = s.do(t, "GET", "/api/votes/"+created.Vote.ID+"/share", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var share struct {
		URL string `json:"url"`
	}
	json.Unmarshal(rec.Body.Bytes(), &share)
	if share.URL != "https://portal.example.org/votes/"+created.Vote.ID {
		t.Errorf("unexpected share URL %q", share.URL)
	}

	rec = s.do(t, "GET", "/api/votes/"+created.Vote.ID+"/qr", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for QR, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
}

func TestBadJSONBody(t *testing.T) {
	s := newTestServer(t)
	token := s.memberToken(t, "m-1")

	r := httptest.NewRequest("POST", "/api/votes", bytes.NewReader([]byte("{not json")))
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got %d", rec.Code)
	}
}
