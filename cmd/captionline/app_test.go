package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"captionline/internal/config"
	"captionline/internal/controller"
	"captionline/internal/theme"
)

type storedItem struct {
	ID         string `json:"id"`
	Tool       string `json:"tool"`
	InputText  string `json:"inputText"`
	OutputText string `json:"outputText"`
	IsSaved    bool   `json:"isSaved"`
	CreatedAt  string `json:"createdAt"`
}

type fakeBackend struct {
	srv *httptest.Server

	mu     sync.Mutex
	inputs []string
	items  []storedItem
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	r := chi.NewRouter()

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "fail", "message": "Unauthorized"})
				return
			}
			next(w, r)
		}
	}

	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "message": "created"})
	})
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "fail", "message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"token": "tok-1"}})
	})
	r.Get("/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{
			"user": map[string]any{"id": "u1", "name": "Alice", "email": "alice@example.com"},
		}})
	}))
	r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	})
	r.Post("/ai/caption", authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.inputs = append(b.inputs, in["input"])
		b.mu.Unlock()

		switch in["input"] {
		case "slow":
			<-r.Context().Done()
			return
		case "fail":
			writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "message": "Model overloaded"})
			return
		}
		output := "Caption for " + in["input"]
		b.mu.Lock()
		b.items = append([]storedItem{{
			ID: "g-42", Tool: "caption", InputText: in["input"],
			OutputText: `{"tool":"caption","output":"` + output + `"}`,
			CreatedAt:  "2025-03-01T10:00:00Z",
		}}, b.items...)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{
			"result": map[string]any{"tool": "caption", "lang": in["lang"], "output": output, "model": "m1", "generationId": "g-42"},
		}})
	}))
	r.Post("/ai/hook", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{
			"result": `{"output":"Hook!"}`,
		}})
	}))
	r.Get("/history", authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"items": b.items}})
	}))
	r.Get("/saved", authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		saved := []storedItem{}
		for _, it := range b.items {
			if it.IsSaved {
				saved = append(saved, it)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": saved})
	}))
	r.Patch("/{id}/toggle-save", authed(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.items {
			if b.items[i].ID == id {
				b.items[i].IsSaved = !b.items[i].IsSaved
				writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"id": id, "isSaved": b.items[i].IsSaved}})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "fail", "message": "Generation not found"})
	}))

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) receivedInputs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.inputs...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type scriptedPrompter struct {
	answers []string
}

func (p *scriptedPrompter) next() (string, error) {
	if len(p.answers) == 0 {
		return "", errPromptCancelled
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) ReadLine(string) (string, error)   { return p.next() }
func (p *scriptedPrompter) ReadSecret(string) (string, error) { return p.next() }

func newTestApp(t *testing.T, b *fakeBackend) *app {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	cfg := &config.Config{
		APIURL:                b.srv.URL,
		Lang:                  "en",
		Tool:                  "caption",
		RequestTimeoutSeconds: 5,
		HistoryLimit:          50,
	}
	a, err := newApp(cfg, zerolog.Nop(), theme.NewManagerWithTheme(theme.DefaultTheme()), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func (a *app) output() string {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.out.(*bytes.Buffer).String()
}

// runScript feeds lines to the REPL loop. Before each line it waits for
// background generations to finish. A line starting with "!" instead waits
// until the current tool has a generation in flight.
func runScript(t *testing.T, a *app, answers []string, lines ...string) string {
	t.Helper()
	a.prompt = &scriptedPrompter{answers: answers}
	registry := a.newRegistry()
	i := 0
	readLine := func() (string, error) {
		if i >= len(lines) {
			a.wg.Wait()
			return "", io.EOF
		}
		line := lines[i]
		i++
		if strings.HasPrefix(line, "!") {
			waitPending(t, a)
			return strings.TrimPrefix(line, "!"), nil
		}
		a.wg.Wait()
		return line, nil
	}
	loop(context.Background(), a, registry, readLine)
	return a.output()
}

func waitPending(t *testing.T, a *app) {
	t.Helper()
	tool, _ := a.current()
	site := a.sites.For(tool)
	deadline := time.Now().Add(2 * time.Second)
	for site.State() != controller.StatePending {
		if time.Now().After(deadline) {
			t.Fatalf("no pending generation for %s", tool)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("expected output to contain %q\n--- output ---\n%s", w, out)
		}
	}
}
