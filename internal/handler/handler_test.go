package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	"github.com/opuluxe-ai/fashion-assistant/internal/middleware"
	"github.com/opuluxe-ai/fashion-assistant/internal/service"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/internal/toolctx"
	"github.com/opuluxe-ai/fashion-assistant/internal/tryon"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

const testSecret = "handler-test-secret"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Complete(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake-model"}, nil
}

func (f *fakeChat) Name() string { return "fake" }

type fakeImages struct {
	err error
}

func (f *fakeImages) GenerateImage(context.Context, *llm.ImageRequest) (*llm.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Image{Data: pngBytes, MIMEType: "image/png"}, nil
}

func (f *fakeImages) Name() string { return "fake-images" }

type fakePhotos struct{ text string }

func (f fakePhotos) Describe(context.Context, *llm.Image, string) (string, error) {
	return f.text, nil
}

func photoURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	handler http.Handler
	store   *store.Memory
}

type envOptions struct {
	chat       llm.Client
	generators []tryon.Generator
	photos     service.PhotoDescriber
	pinger     store.Pinger
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	log := logger.NewNop()
	st := store.NewMemory()

	dispatcher := service.NewDispatcher(opts.chat, service.DefaultDispatcherConfig(), log)
	chatSvc := service.NewChatService(classifier.New(), toolctx.NewCatalog(), opts.photos, dispatcher, service.NewRecorder(st, log), time.Second, log)
	pipeline := tryon.NewPipeline(nil, opts.generators, tryon.Config{
		AnalysisTimeout:   time.Second,
		GenerationTimeout: time.Second,
	}, log)

	h := NewRouter(RouterConfig{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		Health:         NewHealthHandler("memory", opts.pinger),
		Chat:           NewChatHandler(chatSvc, log),
		Conversations:  NewConversationHandler(service.NewConversationService(st, log), log),
		Profiles:       NewProfileHandler(service.NewProfileService(st), log),
		TryOn:          NewTryOnHandler(pipeline, log),
		Logger:         log,
	})
	return &testEnv{handler: h, store: st}
}

func bearer(t *testing.T, owner string) string {
	t.Helper()
	claims := middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   owner,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", bearer(t, owner))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestChatStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		chat       llm.Client
		photos     service.PhotoDescriber
		body       any
		wantStatus int
	}{
		{"success", &fakeChat{reply: "Try a camel overcoat."}, nil, map[string]string{"message": "what's trending for men"}, http.StatusOK},
		{"empty message", &fakeChat{reply: "unused"}, nil, map[string]string{"message": "   "}, http.StatusBadRequest},
		{"malformed body", &fakeChat{reply: "unused"}, nil, "{not json", http.StatusBadRequest},
		{"no backend", nil, nil, map[string]string{"message": "hello"}, http.StatusServiceUnavailable},
		{"rejected credentials", &fakeChat{err: &llm.Error{Provider: "fake", StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}}, nil, map[string]string{"message": "hello"}, http.StatusServiceUnavailable},
		{"backend failure", &fakeChat{err: errors.New("upstream 500")}, nil, map[string]string{"message": "hello"}, http.StatusBadGateway},
		{"image only without vision", &fakeChat{reply: "unused"}, nil, map[string]string{"image": photoURI()}, http.StatusServiceUnavailable},
		{"image only with vision", &fakeChat{reply: "Pair it with loafers."}, fakePhotos{text: "a linen suit"}, map[string]string{"image": photoURI()}, http.StatusOK},
		{"undecodable image", &fakeChat{reply: "unused"}, fakePhotos{text: "unused"}, map[string]string{"message": "hi", "image": "data:image/png;base64,@@@"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{chat: tt.chat, photos: tt.photos})
			rec := env.do(t, http.MethodPost, "/api/chat", "", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decode(t, rec)
			if got := body["success"] == true; got != (tt.wantStatus == http.StatusOK) {
				t.Errorf("success = %v, body %v", body["success"], body)
			}
		})
	}
}

func TestChatReplyFlagsAndSession(t *testing.T) {
	env := newTestEnv(t, envOptions{chat: &fakeChat{reply: "Which profile should I use? [NEED_PROFILE_SELECTION]"}})

	rec := env.do(t, http.MethodPost, "/api/chat", "alice@example.com", map[string]string{"message": "suggest an outfit for a wedding"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["needs_profile"] != true {
		t.Errorf("needs_profile = %v, want true", body["needs_profile"])
	}
	if strings.Contains(body["reply"].(string), "[NEED_PROFILE_SELECTION]") {
		t.Errorf("reply still carries tag: %q", body["reply"])
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("expected a session_id for an identified caller")
	}

	rec = env.do(t, http.MethodGet, "/api/sessions/"+sessionID, "alice@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	msgs, _ := decode(t, rec)["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}

	// Another identity cannot see the session.
	rec = env.do(t, http.MethodGet, "/api/sessions/"+sessionID, "bob@example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", rec.Code)
	}
}

func TestAnonymousChatIsNotPersisted(t *testing.T) {
	env := newTestEnv(t, envOptions{chat: &fakeChat{reply: "Go for white sneakers."}})

	rec := env.do(t, http.MethodPost, "/api/chat", "", map[string]string{"message": "sneakers?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := decode(t, rec)["session_id"]; ok {
		t.Error("anonymous reply should not carry a session_id")
	}
}

func TestSessionsRequireIdentity(t *testing.T) {
	env := newTestEnv(t, envOptions{chat: &fakeChat{reply: "ok"}})

	for _, path := range []string{"/api/sessions", "/api/profiles"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestSessionListAndDelete(t *testing.T) {
	env := newTestEnv(t, envOptions{chat: &fakeChat{reply: "Layer a denim jacket."}})
	const owner = "carol@example.com"

	var ids []string
	for _, msg := range []string{"first question", "second question"} {
		rec := env.do(t, http.MethodPost, "/api/chat", owner, map[string]string{"message": msg})
		if rec.Code != http.StatusOK {
			t.Fatalf("chat status = %d", rec.Code)
		}
		ids = append(ids, decode(t, rec)["session_id"].(string))
	}

	rec := env.do(t, http.MethodGet, "/api/sessions", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["total"] != float64(2) {
		t.Errorf("total = %v, want 2", body["total"])
	}

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+ids[0], owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/sessions/"+ids[0], owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/sessions/not-a-uuid", owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{chat: &fakeChat{reply: "ok"}})
	const owner = "dana@example.com"

	rec := env.do(t, http.MethodPost, "/api/profiles", owner,
		`{"profile": {"id": 1700000000000, "name": "Everyday", "gender": "women", "height": "168cm"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/1700000000000", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode(t, rec)["name"]; got != "Everyday" {
		t.Errorf("name = %v, want Everyday", got)
	}

	rec = env.do(t, http.MethodGet, "/api/profiles", owner, nil)
	profiles, _ := decode(t, rec)["profiles"].([]any)
	if len(profiles) != 1 {
		t.Errorf("profiles = %d, want 1", len(profiles))
	}

	rec = env.do(t, http.MethodPost, "/api/profiles", owner, `{"profile": {"id": "", "name": ""}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid profile status = %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/profiles", owner, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing profile status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/profiles/1700000000000", owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/profiles/1700000000000", owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestTryOn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t, envOptions{generators: []tryon.Generator{
			{Provider: "broken", Model: "m1", Client: &fakeImages{err: errors.New("quota")}},
			{Provider: "works", Model: "m2", Client: &fakeImages{}},
		}})
		rec := env.do(t, http.MethodPost, "/api/tryon", "", map[string]string{"item": "navy blazer", "gender": "men"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		body := decode(t, rec)
		if img, _ := body["image"].(string); !strings.HasPrefix(img, "data:image/png;base64,") {
			t.Errorf("image = %.40q, want PNG data URI", img)
		}
		if body["provider"] != "works" {
			t.Errorf("provider = %v, want works", body["provider"])
		}
	})

	t.Run("all providers fail", func(t *testing.T) {
		env := newTestEnv(t, envOptions{generators: []tryon.Generator{
			{Provider: "broken", Model: "m1", Client: &fakeImages{err: errors.New("quota")}},
		}})
		rec := env.do(t, http.MethodPost, "/api/tryon", "", map[string]string{"item": "navy blazer"})
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		body := decode(t, rec)
		if body["success"] != false || body["error"] != "Generation failed" {
			t.Errorf("body = %v", body)
		}
		if attempts, _ := body["attempts"].([]any); len(attempts) != 1 {
			t.Errorf("attempts = %v, want 1 entry", body["attempts"])
		}
	})

	t.Run("no providers", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		rec := env.do(t, http.MethodPost, "/api/tryon", "", map[string]string{"item": "navy blazer"})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("empty item", func(t *testing.T) {
		env := newTestEnv(t, envOptions{generators: []tryon.Generator{{Provider: "works", Model: "m", Client: &fakeImages{}}}})
		rec := env.do(t, http.MethodPost, "/api/tryon", "", map[string]string{"item": " "})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHealthAndReady(t *testing.T) {
	tests := []struct {
		name       string
		pinger     store.Pinger
		wantStatus int
	}{
		{"in-process store", nil, http.StatusOK},
		{"backend up", fakePinger{}, http.StatusOK},
		{"backend down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{pinger: tt.pinger})

			if rec := env.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
				t.Errorf("health status = %d", rec.Code)
			}
			rec := env.do(t, http.MethodGet, "/ready", "", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("ready status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", rec.Header().Get("X-Content-Type-Options"))
	}
}
