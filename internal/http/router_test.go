package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	"github.com/yungbote/instrument-catalog/internal/data/repos"
	"github.com/yungbote/instrument-catalog/internal/data/repos/testutil"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	httpH "github.com/yungbote/instrument-catalog/internal/http/handlers"
	httpMW "github.com/yungbote/instrument-catalog/internal/http/middleware"
	"github.com/yungbote/instrument-catalog/internal/http/templates"
	"github.com/yungbote/instrument-catalog/internal/platform/ratelimit"
	"github.com/yungbote/instrument-catalog/internal/services"
)

type envelope struct {
	Successful bool            `json:"successful"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
}

type harness struct {
	t        *testing.T
	router   *gin.Engine
	tokens   *services.TokenIssuer
	owner    *types.User
	other    *types.User
	category *types.Category
}

func newHarness(t *testing.T, limits string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	userRepo := repos.NewUserRepo(db, log)
	instrumentRepo := repos.NewInstrumentRepo(db, log)
	categories := services.NewCategoryService(db, log, repos.NewCategoryRepo(db, log), instrumentRepo)
	instruments := services.NewInstrumentService(db, log, instrumentRepo, repos.NewAlternateNameRepo(db, log),
		validation.New(categories, nil, log), nil)
	tokens := services.NewTokenIssuer("router-test-secret")
	auth := services.NewAuthService(db, log, userRepo, repos.NewOAuthNonceRepo(db, log), nil, tokens,
		services.AuthConfig{Env: services.EnvDevelopment})

	var limiter ratelimit.Limiter
	if limits != "" {
		rules, err := ratelimit.ParseRules(limits)
		if err != nil {
			t.Fatalf("ParseRules: %v", err)
		}
		limiter = ratelimit.NewMemoryLimiter(rules, nil)
	}

	pages := httpH.NewPageHandler(log, categories, instruments, auth, httpH.PageConfig{BaseURL: "http://catalog.test", RateLimits: limits})
	router := NewRouter(RouterConfig{
		Log:               log,
		Renderer:          templates.Must(templates.New()),
		Limiter:           limiter,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth, "http://catalog.test"),
		HealthHandler:     httpH.NewHealthHandler(nil),
		InstrumentHandler: httpH.NewInstrumentHandler(log, instruments),
		CategoryHandler:   httpH.NewCategoryHandler(log, categories),
		PageHandler:       pages,
		AuthHandler:       httpH.NewAuthHandler(log, auth, pages, false, true),
	})

	return &harness{
		t:        t,
		router:   router,
		tokens:   tokens,
		owner:    testutil.SeedUser(t, ctx, db, "Owner"),
		other:    testutil.SeedUser(t, ctx, db, "Other"),
		category: testutil.SeedCategory(t, ctx, db, "Winds"),
	}
}

func (h *harness) token(u *types.User, kind string) string {
	h.t.Helper()
	tok, _, err := h.tokens.Issue(u.ID, kind, time.Hour)
	if err != nil {
		h.t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (h *harness) api(method, path string, as *types.User, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		rdr = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+h.token(as, services.TokenKindAPI))
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			h.t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func (h *harness) page(method, path string, as *types.User, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if form != nil {
		rdr = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, rdr)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if as != nil {
		req.AddCookie(&http.Cookie{Name: httpMW.SessionCookie, Value: h.token(as, services.TokenKindSession)})
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createViaAPI(name string, alts ...string) types.InstrumentView {
	h.t.Helper()
	rec, env := h.api(http.MethodPost, "/api/instruments", h.owner, map[string]any{
		"name":            name,
		"description":     "About " + name,
		"category_id":     h.category.ID,
		"alternate_names": alts,
	})
	if rec.Code != http.StatusCreated || !env.Successful {
		h.t.Fatalf("create status=%d env=%+v", rec.Code, env)
	}
	var view types.InstrumentView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		h.t.Fatalf("decode view: %v", err)
	}
	if got, want := rec.Header().Get("Location"), fmt.Sprintf("/instruments/%d", view.ID); got != want {
		h.t.Fatalf("Location = %q, want %q", got, want)
	}
	return view
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newHarness(t, "")
	rec, env := h.api(http.MethodGet, "/api/instruments", nil, nil)
	if rec.Code != http.StatusForbidden || env.Successful {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}
	if !strings.Contains(env.Errors[0], "http://catalog.test/api-docs") {
		t.Fatalf("message = %q", env.Errors[0])
	}

	// A browser session cookie does not authenticate API calls.
	req := httptest.NewRequest(http.MethodGet, "/api/instruments", nil)
	req.AddCookie(&http.Cookie{Name: httpMW.SessionCookie, Value: h.token(h.owner, services.TokenKindSession)})
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cookie-only status = %d", rec.Code)
	}
}

func TestAPIUnknownEndpointAndRoot(t *testing.T) {
	h := newHarness(t, "")
	rec, env := h.api(http.MethodGet, "/api/widgets", h.owner, nil)
	if rec.Code != http.StatusNotFound || len(env.Errors) != 1 || env.Errors[0] != httpH.MsgUnknownEndpoint {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}
	rec, _ = h.api(http.MethodGet, "/api/widgets", nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unauthenticated unknown endpoint status = %d", rec.Code)
	}
	rec, _ = h.api(http.MethodGet, "/api/", nil, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/api-docs" {
		t.Fatalf("root status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAPIInstrumentLifecycle(t *testing.T) {
	h := newHarness(t, "")
	view := h.createViaAPI("Flute", "Transverse Flute", "Concert Flute")
	path := fmt.Sprintf("/api/instruments/%d", view.ID)

	rec, env := h.api(http.MethodGet, path, h.other, nil)
	if rec.Code != http.StatusOK || !env.Successful {
		t.Fatalf("get status=%d env=%+v", rec.Code, env)
	}

	rec, env = h.api(http.MethodPut, path, h.owner, map[string]any{
		"alternate_names": []string{"Concert Flute", "Transverse Flute"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status=%d env=%+v", rec.Code, env)
	}
	var updated types.InstrumentView
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Name != "Flute" || strings.Join(updated.AlternateNames, ",") != "Concert Flute,Transverse Flute" {
		t.Fatalf("updated = %+v", updated)
	}

	rec, env = h.api(http.MethodPut, path, h.owner, map[string]any{"name": "Concert Flute"})
	if rec.Code != http.StatusBadRequest || env.Successful {
		t.Fatalf("invalid put status=%d env=%+v", rec.Code, env)
	}
	var echoed map[string]any
	if err := json.Unmarshal(env.Data, &echoed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if echoed["id"] != float64(view.ID) || echoed["name"] != "Concert Flute" {
		t.Fatalf("echoed = %v", echoed)
	}

	rec, env = h.api(http.MethodPut, path, h.other, map[string]any{"name": "Piccolo"})
	if rec.Code != http.StatusForbidden || env.Errors[0] != services.MsgNotOwner {
		t.Fatalf("non-owner put status=%d env=%+v", rec.Code, env)
	}

	rec, env = h.api(http.MethodDelete, path, h.other, nil)
	if rec.Code != http.StatusForbidden || !strings.Contains(string(env.Data), fmt.Sprintf(`"instrument_id":%d`, view.ID)) {
		t.Fatalf("non-owner delete status=%d env=%+v data=%s", rec.Code, env, env.Data)
	}

	for i := 0; i < 2; i++ {
		rec, env = h.api(http.MethodDelete, path, h.owner, nil)
		if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), fmt.Sprintf(`"deleted_instrument_id":%d`, view.ID)) {
			t.Fatalf("delete #%d status=%d data=%s", i, rec.Code, env.Data)
		}
	}

	rec, env = h.api(http.MethodGet, path, h.owner, nil)
	if rec.Code != http.StatusNotFound || env.Errors[0] != services.MsgInstrumentNotFound {
		t.Fatalf("get deleted status=%d env=%+v", rec.Code, env)
	}
}

func TestAPICreateValidationAndBadIDs(t *testing.T) {
	h := newHarness(t, "")
	rec, env := h.api(http.MethodPost, "/api/instruments", h.owner, map[string]any{"name": "Oboe"})
	if rec.Code != http.StatusBadRequest || env.Successful || len(env.Errors) == 0 {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/instruments", strings.NewReader("[1,2]"))
	req.Header.Set("Authorization", "Bearer "+h.token(h.owner, services.TokenKindAPI))
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), httpH.MsgBodyNotObject) {
		t.Fatalf("array body status=%d body=%s", rec.Code, rec.Body.String())
	}

	for _, path := range []string{"/api/instruments/abc", "/api/categories/abc", "/api/categories/999999/instruments"} {
		rec, _ = h.api(http.MethodGet, path, h.owner, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestAPIMyInstrumentsAndCategories(t *testing.T) {
	h := newHarness(t, "")
	view := h.createViaAPI("Bassoon")

	for _, path := range []string{"/api/my-instruments", "/api/myinstruments"} {
		rec, env := h.api(http.MethodGet, path, h.owner, nil)
		if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"name":"Bassoon"`) {
			t.Fatalf("%s status=%d data=%s", path, rec.Code, env.Data)
		}
		_, env = h.api(http.MethodGet, path, h.other, nil)
		if strings.Contains(string(env.Data), `"name":"Bassoon"`) {
			t.Fatalf("%s leaked another user's instrument: %s", path, env.Data)
		}
	}

	rec, env := h.api(http.MethodGet, fmt.Sprintf("/api/categories/%d/instruments", h.category.ID), h.other, nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), fmt.Sprintf(`"id":%d`, view.ID)) {
		t.Fatalf("category instruments status=%d data=%s", rec.Code, env.Data)
	}
	rec, env = h.api(http.MethodGet, fmt.Sprintf("/api/categories/%d", h.category.ID), h.other, nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), h.category.Name) {
		t.Fatalf("category status=%d data=%s", rec.Code, env.Data)
	}
}

func TestAPIRateLimit(t *testing.T) {
	h := newHarness(t, "2/minute")
	for i := 0; i < 2; i++ {
		if rec, _ := h.api(http.MethodGet, "/api/categories", h.owner, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec, env := h.api(http.MethodGet, "/api/categories", h.owner, nil)
	if rec.Code != http.StatusTooManyRequests || env.Errors[0] != "Rate limit exceeded: 2 per 1 minute" {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}
	// Limits are per user.
	if rec, _ := h.api(http.MethodGet, "/api/categories", h.other, nil); rec.Code != http.StatusOK {
		t.Fatalf("other user status = %d", rec.Code)
	}
}

func TestPages(t *testing.T) {
	h := newHarness(t, "")
	view := h.createViaAPI("Clarinet", "Licorice Stick")

	rec := h.page(http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Clarinet") {
		t.Fatalf("index status=%d", rec.Code)
	}
	rec = h.page(http.MethodGet, fmt.Sprintf("/instruments/%d", view.ID), nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Licorice Stick") {
		t.Fatalf("instrument status=%d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "/edit") {
		t.Fatalf("anonymous visitor sees edit link")
	}
	rec = h.page(http.MethodGet, "/instruments", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), h.category.Name) {
		t.Fatalf("instruments status=%d", rec.Code)
	}
	rec = h.page(http.MethodGet, "/no/such/page", nil, nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "404") {
		t.Fatalf("missing page status=%d", rec.Code)
	}
	rec = h.page(http.MethodGet, "/my", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous /my status=%d", rec.Code)
	}
	rec = h.page(http.MethodGet, fmt.Sprintf("/instruments/%d/edit", view.ID), h.other, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner edit status=%d", rec.Code)
	}
}

func TestPageFormEditAndDelete(t *testing.T) {
	h := newHarness(t, "")
	view := h.createViaAPI("Saxophone", "Sax")

	form := url.Values{
		"name":        {"Alto Saxophone"},
		"description": {"Brass *body*, reed mouthpiece."},
		"category_id": {fmt.Sprint(h.category.ID)},
		"image":       {""},
	}
	for i := 0; i < validation.MaxFormAlternateNames; i++ {
		form.Set(validation.FormAltNameKey(i), "")
	}
	form.Set(validation.FormAltNameKey(0), "Alto Sax")
	rec := h.page(http.MethodPost, fmt.Sprintf("/instruments/%d/edit", view.ID), h.owner, form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = h.page(http.MethodGet, fmt.Sprintf("/instruments/%d", view.ID), h.owner, nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Alto Sax") || !strings.Contains(body, "<em>body</em>") {
		t.Fatalf("edited page:\n%s", body)
	}

	form.Set("name", "")
	rec = h.page(http.MethodPost, fmt.Sprintf("/instruments/%d/edit", view.ID), h.owner, form)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Required data is missing") {
		t.Fatalf("invalid edit status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.page(http.MethodPost, fmt.Sprintf("/instruments/%d/delete", view.ID), h.owner, url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != fmt.Sprintf("/categories/%d", h.category.ID) {
		t.Fatalf("delete status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestDevLoginAndLogout(t *testing.T) {
	h := newHarness(t, "")
	rec := h.page(http.MethodPost, "/login", nil, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("dev login status=%d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), httpMW.SessionCookie+"=") {
		t.Fatalf("no session cookie: %q", rec.Header().Get("Set-Cookie"))
	}

	rec = h.page(http.MethodPost, "/logout", h.owner, url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("logout status=%d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	var cleared, flashed bool
	for _, ck := range cookies {
		if ck.Name == httpMW.SessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
		if ck.Name == "catalog_flash" && ck.Value != "" {
			flashed = true
		}
	}
	if !cleared || !flashed {
		t.Fatalf("cookies = %+v", cookies)
	}
}
