package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"captionline/internal/api"
	"captionline/internal/session"
)

type fakeBackend struct {
	srv          *httptest.Server
	logoutFails  atomic.Bool
	tokenless    atomic.Bool
	registerHits atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	r := chi.NewRouter()
	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.registerHits.Add(1)
		var in RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email == "taken@example.com" {
			writeJSON(w, http.StatusConflict, `{"status":"fail","message":"Email already registered"}`)
			return
		}
		writeJSON(w, http.StatusCreated, `{"code":201,"status":"success","message":"Registered `+in.Email+`"}`)
	})
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, `{"status":"fail","message":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s-1", Path: "/"})
		if b.tokenless.Load() {
			writeJSON(w, http.StatusOK, `{"status":"success","message":"ok"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"success","message":"ok","data":{"token":"tok-1"}}`)
	})
	r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_, cookieErr := r.Cookie("sid")
		if r.Header.Get("Authorization") != "Bearer tok-1" && cookieErr != nil {
			writeJSON(w, http.StatusUnauthorized, `{"status":"fail","message":"Unauthorized"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"user":{"id":"u1","name":"Alice","email":"alice@example.com"}}}`)
	})
	r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if b.logoutFails.Load() {
			writeJSON(w, http.StatusInternalServerError, `<html>down</html>`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"success","message":"bye"}`)
	})
	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestService(t *testing.T, b *fakeBackend) (*Service, *session.Session) {
	t.Helper()
	sess := session.New("")
	client, err := api.NewClient(b.srv.URL, sess)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewService(client, sess, zerolog.Nop()), sess
}

func TestRegister(t *testing.T) {
	b := newFakeBackend(t)
	svc, _ := newTestService(t, b)

	env, err := svc.Register(context.Background(), RegisterInput{Name: " Alice ", Email: " ALICE@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if env.Message != "Registered alice@example.com" {
		t.Fatalf("expected normalized email to be sent, got %q", env.Message)
	}

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Bob", Email: "taken@example.com", Password: "password1"})
	if err == nil || err.Error() != "Email already registered" {
		t.Fatalf("expected backend message, got %v", err)
	}

	hits := b.registerHits.Load()
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "x", Email: "x", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if b.registerHits.Load() != hits {
		t.Fatal("invalid input must not reach the backend")
	}
}

func TestLoginStoresToken(t *testing.T) {
	b := newFakeBackend(t)
	svc, sess := newTestService(t, b)

	if _, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong-pass"}); err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("failed login must not store a token")
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	header, ok := sess.Authorization()
	if !ok || header != "Bearer tok-1" {
		t.Fatalf("expected token in session, got %q", header)
	}

	user, err := svc.Me(context.Background())
	if err != nil || user == nil || user.Name != "Alice" {
		t.Fatalf("unexpected Me result %+v (%v)", user, err)
	}
}

func TestLoginWithoutTokenUsesCookie(t *testing.T) {
	b := newFakeBackend(t)
	b.tokenless.Store(true)
	svc, sess := newTestService(t, b)

	if _, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("expected no bearer token")
	}
	user, err := svc.Me(context.Background())
	if err != nil || user == nil || user.ID != "u1" {
		t.Fatalf("expected cookie session to authenticate, got %+v (%v)", user, err)
	}
}

func TestLogoutClearsTokenEvenOnFailure(t *testing.T) {
	b := newFakeBackend(t)
	b.logoutFails.Store(true)
	svc, sess := newTestService(t, b)
	sess.SetToken("tok-1")

	err := svc.Logout(context.Background())
	if err == nil || err.Error() != "Logout failed" {
		t.Fatalf("expected fallback message, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("expected token to be cleared")
	}
}

func TestDecodeUser(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"wrapped", `{"user":{"id":"u1","name":"A","email":"a@b.io"}}`, "u1"},
		{"bare", `{"id":"u2","name":"B","email":"b@b.io"}`, "u2"},
		{"null user", `{"user":null}`, ""},
		{"empty", ``, ""},
		{"not an object", `"hello"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := decodeUser(json.RawMessage(tt.data))
			if tt.want == "" {
				if u != nil {
					t.Fatalf("expected nil user, got %+v", u)
				}
				return
			}
			if u == nil || u.ID != tt.want {
				t.Fatalf("expected user %s, got %+v", tt.want, u)
			}
		})
	}
}
