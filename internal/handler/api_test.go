package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tidyhome/booking-api/internal/config"
	"github.com/tidyhome/booking-api/internal/database"
	"github.com/tidyhome/booking-api/internal/handler"
	"github.com/tidyhome/booking-api/internal/repository"
	"github.com/tidyhome/booking-api/internal/router"
)

// These tests exercise the full HTTP surface against a real MySQL instance
// and skip when the database environment is not configured.

type testEnv struct {
	e  *echo.Echo
	db *sql.DB
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")
	if os.Getenv("DB_HOST") == "" || os.Getenv("DB_NAME") == "" {
		t.Skip("DB_HOST or DB_NAME not set")
	}

	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // bcrypt.MinCost keeps the suite fast
	}

	db, err := database.Open(os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)

	e := echo.New()
	router.RegisterRoutes(e, cfg, nil,
		handler.NewAuthHandler(cfg, users, tokens),
		handler.NewServiceHandler(services),
		handler.NewBookingHandler(bookings, services))
	return &testEnv{e: e, db: db}
}

func (te *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	te.e.ServeHTTP(rec, req)

	var env apiEnvelope
	if rec.Code != http.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad envelope %q: %v", method, path, rec.Body.String(), err)
		}
		if env.Success != (rec.Code < http.StatusBadRequest) {
			t.Fatalf("%s %s: success=%v disagrees with status %d", method, path, env.Success, rec.Code)
		}
	}
	return rec.Code, env
}

func uniqueEmail() string {
	return fmt.Sprintf("test-%d@example.com", time.Now().UnixNano())
}

// registerUser creates a fresh account and returns its token and user ID.
func registerUser(t *testing.T, te *testEnv) (token string, userID uint64, email string) {
	t.Helper()
	email = uniqueEmail()
	code, env := te.do(t, http.MethodPost, "/register", "", echo.Map{
		"name": "Test User", "email": email,
		"password": "testpass123", "password_confirmation": "testpass123",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: status %d", code)
	}
	var data struct {
		User  struct{ ID uint64 `json:"id"` } `json:"user"`
		Token string                          `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("register payload: %v", err)
	}
	return data.Token, data.User.ID, email
}

// registerAdmin creates an account, promotes it directly in the database and
// logs back in so the new token carries the admin claim.
func registerAdmin(t *testing.T, te *testEnv) string {
	t.Helper()
	_, userID, email := registerUser(t, te)
	if _, err := te.db.ExecContext(context.Background(),
		"UPDATE users SET is_admin = 1 WHERE id = ?", userID); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	code, env := te.do(t, http.MethodPost, "/login", "", echo.Map{
		"email": email, "password": "testpass123",
	})
	if code != http.StatusOK {
		t.Fatalf("admin login: status %d", code)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("login payload: %v", err)
	}
	return data.Token
}

func createService(t *testing.T, te *testEnv, adminToken string) uint64 {
	t.Helper()
	code, env := te.do(t, http.MethodPost, "/services", adminToken, echo.Map{
		"title": fmt.Sprintf("Test Service %d", time.Now().UnixNano()),
		"price": "75.00",
	})
	if code != http.StatusCreated {
		t.Fatalf("create service: status %d", code)
	}
	var svc struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &svc); err != nil {
		t.Fatalf("service payload: %v", err)
	}
	return svc.ID
}

type bookingPayload struct {
	ID                 uint64   `json:"id"`
	UserID             uint64   `json:"user_id"`
	Status             string   `json:"status"`
	StatusLabel        string   `json:"status_label"`
	CanCancel          bool     `json:"can_cancel"`
	CanConfirm         bool     `json:"can_confirm"`
	AllowedTransitions []string `json:"allowed_transitions"`
	Service            *struct {
		Title string `json:"title"`
	} `json:"service"`
}

func createBooking(t *testing.T, te *testEnv, token string, serviceID uint64, extra echo.Map) (int, apiEnvelope) {
	t.Helper()
	body := echo.Map{
		"service_id":    serviceID,
		"customer_name": "Jane Doe",
		"address":       "12 Elm Street",
		"date":          time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02"),
		"time":          "14:30",
	}
	for k, v := range extra {
		body[k] = v
	}
	return te.do(t, http.MethodPost, "/bookings", token, body)
}

func decodeBooking(t *testing.T, env apiEnvelope) bookingPayload {
	t.Helper()
	var b bookingPayload
	if err := json.Unmarshal(env.Data, &b); err != nil {
		t.Fatalf("booking payload: %v", err)
	}
	return b
}

// ----- auth -----

func TestRegisterValidation(t *testing.T) {
	te := setup(t)
	tests := []struct {
		name string
		body echo.Map
	}{
		{"missing name", echo.Map{"email": uniqueEmail(), "password": "testpass123", "password_confirmation": "testpass123"}},
		{"bad email", echo.Map{"name": "X", "email": "not-an-email", "password": "testpass123", "password_confirmation": "testpass123"}},
		{"short password", echo.Map{"name": "X", "email": uniqueEmail(), "password": "short", "password_confirmation": "short"}},
		{"confirmation mismatch", echo.Map{"name": "X", "email": uniqueEmail(), "password": "testpass123", "password_confirmation": "different123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := te.do(t, http.MethodPost, "/register", "", tt.body)
			if code != http.StatusUnprocessableEntity {
				t.Fatalf("status %d", code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	te := setup(t)
	_, _, email := registerUser(t, te)
	code, env := te.do(t, http.MethodPost, "/register", "", echo.Map{
		"name": "Second", "email": email,
		"password": "testpass123", "password_confirmation": "testpass123",
	})
	if code != http.StatusConflict {
		t.Fatalf("status %d", code)
	}
	if env.Message == nil || *env.Message != "Email already exists" {
		t.Fatalf("message %v", env.Message)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	te := setup(t)
	_, _, email := registerUser(t, te)
	code, env := te.do(t, http.MethodPost, "/login", "", echo.Map{
		"email": email, "password": "wrongpass123",
	})
	if code != http.StatusUnauthorized {
		t.Fatalf("status %d", code)
	}
	if env.Message == nil || *env.Message != "Invalid credentials" {
		t.Fatalf("message %v", env.Message)
	}
}

func TestMeAndLogout(t *testing.T) {
	te := setup(t)
	token, _, email := registerUser(t, te)

	code, env := te.do(t, http.MethodGet, "/user", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: status %d", code)
	}
	var u struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	}
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("me payload: %v", err)
	}
	if u.Email != email || u.IsAdmin {
		t.Fatalf("me payload: %+v", u)
	}

	if code, _ := te.do(t, http.MethodPost, "/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout: status %d", code)
	}
}

func TestRefreshRotation(t *testing.T) {
	te := setup(t)
	code, env := te.do(t, http.MethodPost, "/register", "", echo.Map{
		"name": "Test User", "email": uniqueEmail(),
		"password": "testpass123", "password_confirmation": "testpass123",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: status %d", code)
	}
	var first struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &first); err != nil {
		t.Fatalf("register payload: %v", err)
	}
	if first.RefreshToken == "" {
		t.Fatal("register issued no refresh token")
	}

	code, env = te.do(t, http.MethodPost, "/refresh", "", echo.Map{"refresh_token": first.RefreshToken})
	if code != http.StatusOK {
		t.Fatalf("refresh: status %d", code)
	}
	var next struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &next); err != nil {
		t.Fatalf("refresh payload: %v", err)
	}
	if next.RefreshToken == "" || next.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	// The fresh access token must work on a protected route.
	if code, _ := te.do(t, http.MethodGet, "/user", next.Token, nil); code != http.StatusOK {
		t.Fatalf("me with refreshed token: status %d", code)
	}

	// The spent token was revoked and cannot be replayed.
	code, env = te.do(t, http.MethodPost, "/refresh", "", echo.Map{"refresh_token": first.RefreshToken})
	if code != http.StatusUnauthorized {
		t.Fatalf("replay: status %d", code)
	}
	if env.Message == nil || *env.Message != "Invalid refresh token" {
		t.Fatalf("replay message %v", env.Message)
	}

	if code, _ := te.do(t, http.MethodPost, "/refresh", "", echo.Map{}); code != http.StatusUnprocessableEntity {
		t.Fatalf("missing token: status %d", code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	te := setup(t)
	for _, path := range []string{"/bookings", "/user"} {
		code, _ := te.do(t, http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d", path, code)
		}
	}
}

// ----- catalog -----

func TestServiceCRUD(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	id := createService(t, te, admin)

	code, env := te.do(t, http.MethodGet, fmt.Sprintf("/services/%d", id), "", nil)
	if code != http.StatusOK {
		t.Fatalf("show: status %d", code)
	}
	var svc struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(env.Data, &svc); err != nil {
		t.Fatalf("show payload: %v", err)
	}
	if svc.Price != "75.00" {
		t.Fatalf("price = %q", svc.Price)
	}

	code, env = te.do(t, http.MethodPut, fmt.Sprintf("/services/%d", id), admin, echo.Map{"price": "99.90"})
	if code != http.StatusOK {
		t.Fatalf("update: status %d", code)
	}
	if err := json.Unmarshal(env.Data, &svc); err != nil {
		t.Fatalf("update payload: %v", err)
	}
	if svc.Price != "99.90" {
		t.Fatalf("updated price = %q", svc.Price)
	}

	if code, _ := te.do(t, http.MethodDelete, fmt.Sprintf("/services/%d", id), admin, nil); code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	if code, _ := te.do(t, http.MethodGet, fmt.Sprintf("/services/%d", id), "", nil); code != http.StatusNotFound {
		t.Fatalf("show after delete: status %d", code)
	}
}

func TestServiceCreateRequiresAdmin(t *testing.T) {
	te := setup(t)
	token, _, _ := registerUser(t, te)
	code, env := te.do(t, http.MethodPost, "/services", token, echo.Map{
		"title": "Sneaky Service", "price": "10.00",
	})
	if code != http.StatusForbidden {
		t.Fatalf("status %d", code)
	}
	if env.Message == nil || *env.Message != "Unauthorized" {
		t.Fatalf("message %v", env.Message)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	code, _ := te.do(t, http.MethodPost, "/services", admin, echo.Map{"title": "No Price"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("missing price: status %d", code)
	}
	code, _ = te.do(t, http.MethodPost, "/services", admin, echo.Map{"title": "Negative", "price": "-1.00"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("negative price: status %d", code)
	}
}

// ----- bookings -----

func TestBookingCreationForcesPending(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	token, userID, _ := registerUser(t, te)

	// A supplied status must be ignored, not honored and not rejected.
	code, env := createBooking(t, te, token, svcID, echo.Map{"status": "confirmed"})
	if code != http.StatusCreated {
		t.Fatalf("status %d", code)
	}
	b := decodeBooking(t, env)
	if b.Status != "pending" {
		t.Fatalf("new booking status = %q, want pending", b.Status)
	}
	if b.UserID != userID {
		t.Fatalf("owner = %d, want %d", b.UserID, userID)
	}
	if !b.CanCancel || !b.CanConfirm {
		t.Fatalf("pending hints wrong: %+v", b)
	}
}

func TestBookingCreateUnknownService(t *testing.T) {
	te := setup(t)
	token, _, _ := registerUser(t, te)
	code, _ := createBooking(t, te, token, 999999999, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", code)
	}
}

func TestBookingShowDeniedForNonOwner(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	owner, _, _ := registerUser(t, te)
	stranger, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, owner, svcID, nil)
	b := decodeBooking(t, env)

	code, env := te.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", b.ID), stranger, nil)
	if code != http.StatusForbidden {
		t.Fatalf("status %d", code)
	}
	if env.Message == nil || *env.Message != "Unauthorized" {
		t.Fatalf("message %v", env.Message)
	}

	// Admin reads anyone's booking.
	if code, _ := te.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", b.ID), admin, nil); code != http.StatusOK {
		t.Fatalf("admin show: status %d", code)
	}
}

func TestAdminStatusTransitions(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	token, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, token, svcID, nil)
	b := decodeBooking(t, env)
	path := fmt.Sprintf("/bookings/%d/status", b.ID)

	code, env := te.do(t, http.MethodPatch, path, admin, echo.Map{"status": "confirmed"})
	if code != http.StatusOK {
		t.Fatalf("confirm: status %d", code)
	}
	if got := decodeBooking(t, env); got.Status != "confirmed" || got.StatusLabel != "Confirmed" {
		t.Fatalf("after confirm: %+v", got)
	}

	code, env = te.do(t, http.MethodPatch, path, admin, echo.Map{"status": "cancelled"})
	if code != http.StatusOK {
		t.Fatalf("cancel: status %d", code)
	}
	if got := decodeBooking(t, env); len(got.AllowedTransitions) != 0 {
		t.Fatalf("cancelled transitions: %v", got.AllowedTransitions)
	}

	// cancelled is terminal; the error enumerates the (empty) allowed set.
	code, env = te.do(t, http.MethodPatch, path, admin, echo.Map{"status": "confirmed"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("reopen: status %d", code)
	}
	want := "Cannot transition from 'cancelled' to 'confirmed'. Allowed transitions: none"
	if env.Message == nil || *env.Message != want {
		t.Fatalf("message %v", env.Message)
	}
}

func TestAdminStatusUnknownValue(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	token, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, token, svcID, nil)
	b := decodeBooking(t, env)

	code, env := te.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d/status", b.ID), admin,
		echo.Map{"status": "done"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", code)
	}
	want := "Invalid status value. Allowed: pending, confirmed, cancelled"
	if env.Message == nil || *env.Message != want {
		t.Fatalf("message %v", env.Message)
	}
}

func TestStatusUpdateRequiresAdmin(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	token, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, token, svcID, nil)
	b := decodeBooking(t, env)

	code, _ := te.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d/status", b.ID), token,
		echo.Map{"status": "confirmed"})
	if code != http.StatusForbidden {
		t.Fatalf("status %d", code)
	}
}

func TestSelfCancel(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	owner, _, _ := registerUser(t, te)
	stranger, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, owner, svcID, nil)
	b := decodeBooking(t, env)
	path := fmt.Sprintf("/bookings/%d/cancel", b.ID)

	// Another user, even before any transition, gets an authorization error.
	code, env := te.do(t, http.MethodPatch, path, stranger, nil)
	if code != http.StatusForbidden {
		t.Fatalf("stranger cancel: status %d", code)
	}
	if env.Message == nil || *env.Message != "Unauthorized" {
		t.Fatalf("message %v", env.Message)
	}

	code, env = te.do(t, http.MethodPatch, path, owner, nil)
	if code != http.StatusOK {
		t.Fatalf("owner cancel: status %d", code)
	}
	if got := decodeBooking(t, env); got.Status != "cancelled" {
		t.Fatalf("after cancel: %+v", got)
	}

	// Second cancel hits the terminal state: a domain-rule failure, not an
	// authorization one.
	code, env = te.do(t, http.MethodPatch, path, owner, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("double cancel: status %d", code)
	}
	if env.Message == nil || *env.Message != "This booking cannot be cancelled" {
		t.Fatalf("message %v", env.Message)
	}
}

func TestBookingDelete(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	owner, _, _ := registerUser(t, te)
	stranger, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, owner, svcID, nil)
	b := decodeBooking(t, env)
	path := fmt.Sprintf("/bookings/%d", b.ID)

	if code, _ := te.do(t, http.MethodDelete, path, stranger, nil); code != http.StatusForbidden {
		t.Fatalf("stranger delete: status %d", code)
	}
	if code, _ := te.do(t, http.MethodDelete, path, owner, nil); code != http.StatusOK {
		t.Fatalf("owner delete: status %d", code)
	}
	if code, _ := te.do(t, http.MethodGet, path, owner, nil); code != http.StatusNotFound {
		t.Fatalf("show after delete: status %d", code)
	}
}

func TestBookingSurvivesServiceDeletion(t *testing.T) {
	te := setup(t)
	admin := registerAdmin(t, te)
	svcID := createService(t, te, admin)
	token, _, _ := registerUser(t, te)

	_, env := createBooking(t, te, token, svcID, nil)
	b := decodeBooking(t, env)

	if code, _ := te.do(t, http.MethodDelete, fmt.Sprintf("/services/%d", svcID), admin, nil); code != http.StatusNoContent {
		t.Fatalf("delete service: status %d", code)
	}

	code, env := te.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", b.ID), token, nil)
	if code != http.StatusOK {
		t.Fatalf("show: status %d", code)
	}
	if got := decodeBooking(t, env); got.Service != nil {
		t.Fatalf("service should be null after catalog deletion: %+v", got.Service)
	}
}
