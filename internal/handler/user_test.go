package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/model"
	"github.com/registra/registra/internal/service"
)

type fakeUserService struct {
	user *model.User
	err  error

	gotInput    service.CreateUserInput
	gotUsername string
	gotPatch    model.UserPatch
	calls       int
}

func (f *fakeUserService) Create(ctx context.Context, input service.CreateUserInput) (*model.User, error) {
	f.calls++
	f.gotInput = input
	return f.user, f.err
}

func (f *fakeUserService) Update(ctx context.Context, username string, patch model.UserPatch) (*model.User, error) {
	f.calls++
	f.gotUsername = username
	f.gotPatch = patch
	return f.user, f.err
}

func (f *fakeUserService) FindOneByUsername(ctx context.Context, username string) (*model.User, error) {
	f.calls++
	f.gotUsername = username
	return f.user, f.err
}

func sampleUser() *model.User {
	ts := time.Date(2025, 8, 10, 22, 32, 0, 0, time.UTC)
	return &model.User{
		ID:                 "0b9a9d2c-6f0e-4c58-9d55-2f3a6f1f1a11",
		Username:           "LucasAndrade",
		UsernameNormalized: "lucasandrade",
		Email:              "Meu.Email+tag@Mail.com",
		EmailNormalized:    "meuemail@mail.com",
		Password:           "$2a$04$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz01234",
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
}

func userRouter(svc UserService) http.Handler {
	h := NewUserHandler(svc, discardLogger())
	r := chi.NewRouter()
	r.Post("/api/v1/users", h.Create)
	r.Get("/api/v1/users/{username}", h.Get)
	r.Patch("/api/v1/users/{username}", h.Update)
	return r
}

func TestUserHandler_Create(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}

	body := `{"username":"LucasAndrade","email":"Meu.Email+tag@Mail.com","password":"123QWE"}`
	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotInput.Username != "LucasAndrade" || svc.gotInput.Email != "Meu.Email+tag@Mail.com" || svc.gotInput.Password != "123QWE" {
		t.Errorf("unexpected service input: %+v", svc.gotInput)
	}

	got := decodeBody(t, rec)
	want := map[string]any{
		"id":                  "0b9a9d2c-6f0e-4c58-9d55-2f3a6f1f1a11",
		"username":            "LucasAndrade",
		"username_normalized": "lucasandrade",
		"email":               "Meu.Email+tag@Mail.com",
		"email_normalized":    "meuemail@mail.com",
		"created_at":          "2025-08-10T22:32:00Z",
		"updated_at":          "2025-08-10T22:32:00Z",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["password"]; !ok {
		t.Error("password hash missing from response")
	}
}

func TestUserHandler_Create_InvalidJSON(t *testing.T) {
	svc := &fakeUserService{}

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"username":`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["name"] != "ValidationError" {
		t.Errorf("expected ValidationError, got %v", body["name"])
	}
	if svc.calls != 0 {
		t.Errorf("service called %d times, want 0", svc.calls)
	}
}

func TestUserHandler_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantDetails bool
	}{
		{"missing fields", apperr.MissingFields([]string{"username", "password"}), true},
		{"duplicate email", apperr.Validation("The email provided is already in use.", "Use a different email to perform this operation."), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeUserService{err: tt.err}

			rec := httptest.NewRecorder()
			userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{}`)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["name"] != "ValidationError" {
				t.Errorf("expected ValidationError, got %v", body["name"])
			}
			if body["status_code"] != float64(400) {
				t.Errorf("expected status_code 400, got %v", body["status_code"])
			}

			details, ok := body["details"].(map[string]any)
			if ok != tt.wantDetails {
				t.Fatalf("details present = %v, want %v", ok, tt.wantDetails)
			}
			if tt.wantDetails {
				if _, ok := details["username"]; !ok {
					t.Errorf("details missing username: %v", details)
				}
				if _, ok := details["password"]; !ok {
					t.Errorf("details missing password: %v", details)
				}
			}
		})
	}
}

func TestUserHandler_Create_InternalErrorHidesCause(t *testing.T) {
	svc := &fakeUserService{err: errors.New("create user: dial tcp 10.0.0.5:5432: connection refused")}

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("response leaks cause: %s", rec.Body.String())
	}
	if body := decodeBody(t, rec); body["name"] != "InternalServerError" {
		t.Errorf("expected InternalServerError, got %v", body["name"])
	}
}

func TestUserHandler_Get(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/LucasAndrade", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotUsername != "LucasAndrade" {
		t.Errorf("service got username %q", svc.gotUsername)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	svc := &fakeUserService{err: apperr.NotFound(
		"The username provided was not found in the system.",
		"Check that the username is spelled correctly.",
	)}

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "NotFoundError" || body["status_code"] != float64(404) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestUserHandler_Update(t *testing.T) {
	svc := &fakeUserService{user: sampleUser()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/lucasandrade", strings.NewReader(`{"email":"novo@mail.com"}`))
	userRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotUsername != "lucasandrade" {
		t.Errorf("service got username %q", svc.gotUsername)
	}
	if svc.gotPatch.Email == nil || *svc.gotPatch.Email != "novo@mail.com" {
		t.Errorf("email not forwarded: %+v", svc.gotPatch)
	}
	if svc.gotPatch.Username != nil || svc.gotPatch.Password != nil {
		t.Errorf("absent fields must stay nil: %+v", svc.gotPatch)
	}
}
