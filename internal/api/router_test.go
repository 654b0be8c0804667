package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/canteenx/canteen-system/internal/api/handler"
	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
	"github.com/canteenx/canteen-system/internal/core/service"
	"github.com/canteenx/canteen-system/internal/infrastructure/password"
)

// memStore is a tiny in-memory backing for the three repositories.
type memStore struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*domain.User
	foods  map[string]*domain.FoodItem
	orders map[string]*domain.Order
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*domain.User{},
		foods:  map[string]*domain.FoodItem{},
		orders: map[string]*domain.Order{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == u.Email || x.CollegeID == u.CollegeID {
			return nil, domain.ErrDuplicateUser
		}
	}
	cp := *u
	cp.ID = r.nextID("u")
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) FindByEmailOrCollegeID(_ context.Context, email, collegeID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == email || x.CollegeID == collegeID {
			cp := *x
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *x
	return &cp, nil
}

type memFoods struct{ *memStore }

func (r memFoods) Create(_ context.Context, f *domain.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.nextID("f")
	cp := *f
	r.foods[f.ID] = &cp
	return nil
}

func (r memFoods) FindByIDs(_ context.Context, ids []string) ([]*domain.FoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FoodItem
	for _, id := range ids {
		if f, ok := r.foods[id]; ok {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memFoods) Update(_ context.Context, id string, upd ports.FoodUpdate) (*domain.FoodItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.foods[id]
	if !ok {
		return nil, domain.ErrFoodNotFound
	}
	if upd.Price != nil {
		f.Price = *upd.Price
	}
	if upd.Available != nil {
		f.Available = *upd.Available
	}
	cp := *f
	return &cp, nil
}

type memOrders struct{ *memStore }

func (r memOrders) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID("o")
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r memOrders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r memOrders) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if f.UserID == "" || o.UserID == f.UserID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memOrders) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time, actorID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, domain.StatusHistoryEntry{Status: to, Timestamp: at, ActorID: actorID})
	cp := *o
	return &cp, nil
}

func (r memOrders) Stats(_ context.Context) (*domain.OrderStats, error) {
	return nil, errors.New("stats backend offline")
}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	tokens *service.TokenIssuer
	store  *memStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newMemStore()
	users := memUsers{store}
	log := zerolog.Nop()

	tokens := service.NewTokenIssuer(service.TokenConfig{
		Secret: "router-test-secret-router-test-secret",
		Issuer: "canteenx-test",
		TTL:    time.Hour,
	})
	auth := service.NewAuthService(users, password.NewBcryptHasher(bcrypt.MinCost), tokens, time.Hour, log)
	orders := service.NewOrderService(memOrders{store}, memFoods{store}, users, nil, log)
	foods := service.NewFoodService(memFoods{store}, log)

	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Logger:     log,
		Tokens:     tokens,
		Auth:       auth,
		Orders:     orders,
		Foods:      foods,
		Readiness:  map[string]handler.DependencyCheck{"mongodb": func(context.Context) error { return nil }},
		Registerer: reg,
		Gatherer:   reg,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, tokens: tokens, store: store}
}

func (s *testServer) do(method, path, token, body string) (int, map[string]any) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) register(body string) string {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, "/auth/register", "", body)
	if code != http.StatusCreated {
		s.t.Fatalf("register: expected 201, got %d %v", code, resp)
	}
	return resp["token"].(string)
}

const studentForm = `{"name":"A","email":"a@x.com","collegeId":"C1","password":"pw","phone":"111","department":"CS"}`

func TestRouter_RegisterThenLoginByCollegeID(t *testing.T) {
	s := newTestServer(t)
	s.register(studentForm)

	code, resp := s.do(http.MethodPost, "/auth/login", "", `{"collegeId":"C1","password":"pw"}`)
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", code, resp)
	}
	p, err := s.tokens.Verify(resp["token"].(string))
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	user := resp["user"].(map[string]any)
	if p.UserID != user["id"] || p.Role != domain.RoleStudent {
		t.Fatalf("principal %+v does not match user %v", p, user)
	}

	token := resp["token"].(string)
	code, resp = s.do(http.MethodGet, "/auth/me", token, "")
	if code != http.StatusOK || resp["user"].(map[string]any)["collegeId"] != "C1" {
		t.Fatalf("me: %d %v", code, resp)
	}

	s.store.mu.Lock()
	delete(s.store.users, p.UserID)
	s.store.mu.Unlock()
	code, resp = s.do(http.MethodGet, "/auth/me", token, "")
	if code != http.StatusNotFound || resp["code"] != "user_not_found" {
		t.Fatalf("me after account removal: %d %v", code, resp)
	}
}

func TestRouter_AuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(studentForm)

	code, resp := s.do(http.MethodPost, "/auth/register", "", studentForm)
	if code != http.StatusBadRequest || resp["code"] != "duplicate_user" {
		t.Fatalf("duplicate: %d %v", code, resp)
	}

	code, resp = s.do(http.MethodPost, "/auth/register", "", `{"name":"B","email":"b@x.com"}`)
	if code != http.StatusBadRequest || resp["code"] != "missing_field" {
		t.Fatalf("missing field: %d %v", code, resp)
	}

	_, wrong := s.do(http.MethodPost, "/auth/login", "", `{"email":"a@x.com","password":"nope"}`)
	code, unknown := s.do(http.MethodPost, "/auth/login", "", `{"email":"ghost@x.com","password":"pw"}`)
	if code != http.StatusUnauthorized || fmt.Sprint(wrong) != fmt.Sprint(unknown) {
		t.Fatalf("credential failures differ: %v vs %v", wrong, unknown)
	}

	longPassword := `{"name":"L","email":"l@x.com","collegeId":"L1","password":"` + strings.Repeat("p", 80) + `","phone":"1","department":"CS"}`
	code, resp = s.do(http.MethodPost, "/auth/register", "", longPassword)
	if code != http.StatusBadRequest {
		t.Fatalf("long password: %d %v", code, resp)
	}

	code, resp = s.do(http.MethodGet, "/orders", "", "")
	if code != http.StatusUnauthorized || resp["code"] != "missing_token" {
		t.Fatalf("no token: %d %v", code, resp)
	}
	code, _ = s.do(http.MethodGet, "/orders", "garbage", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}
}

func TestRouter_OrderFlow(t *testing.T) {
	s := newTestServer(t)
	student := s.register(studentForm)
	staff := s.register(`{"name":"S","email":"s@x.com","collegeId":"S1","password":"pw","phone":"222","department":"Canteen","role":"canteen_staff"}`)

	code, resp := s.do(http.MethodPost, "/foods", student, `{"name":"Dosa","price":6000}`)
	if code != http.StatusForbidden {
		t.Fatalf("student creating food: %d %v", code, resp)
	}
	code, food := s.do(http.MethodPost, "/foods", staff, `{"name":"Dosa","price":6000}`)
	if code != http.StatusCreated {
		t.Fatalf("create food: %d %v", code, food)
	}

	code, resp = s.do(http.MethodPost, "/orders", student, fmt.Sprintf(`{"items":[{"foodId":%q,"quantity":3074457345618258}]}`, food["id"]))
	if code != http.StatusBadRequest {
		t.Fatalf("oversized quantity: %d %v", code, resp)
	}

	code, order := s.do(http.MethodPost, "/orders", student, fmt.Sprintf(`{"items":[{"foodId":%q,"quantity":2}]}`, food["id"]))
	if code != http.StatusCreated || order["total"] != float64(12000) {
		t.Fatalf("create order: %d %v", code, order)
	}
	id := order["id"].(string)

	code, resp = s.do(http.MethodPatch, "/orders/"+id+"/status", student, `{"status":"preparing"}`)
	if code != http.StatusForbidden {
		t.Fatalf("student progressing order: %d %v", code, resp)
	}
	code, resp = s.do(http.MethodPatch, "/orders/"+id+"/status", staff, `{"status":"completed"}`)
	if code != http.StatusUnprocessableEntity || resp["code"] != "invalid_transition" {
		t.Fatalf("skipping states: %d %v", code, resp)
	}
	code, resp = s.do(http.MethodPatch, "/orders/"+id+"/status", staff, `{"status":"preparing"}`)
	if code != http.StatusOK || resp["status"] != "preparing" {
		t.Fatalf("progress: %d %v", code, resp)
	}
	code, resp = s.do(http.MethodPatch, "/orders/"+id+"/status", student, `{"status":"cancelled"}`)
	if code != http.StatusOK || resp["status"] != "cancelled" {
		t.Fatalf("owner cancel: %d %v", code, resp)
	}

	code, resp = s.do(http.MethodGet, "/orders/stats", student, "")
	if code != http.StatusForbidden {
		t.Fatalf("student stats: %d %v", code, resp)
	}
	code, resp = s.do(http.MethodGet, "/orders/stats", staff, "")
	if code != http.StatusInternalServerError || resp["error"] != "internal server error" {
		t.Fatalf("stats failure: %d %v", code, resp)
	}

	code, resp = s.do(http.MethodGet, "/orders/does-not-exist", staff, "")
	if code != http.StatusNotFound || resp["code"] != "order_not_found" {
		t.Fatalf("missing order: %d %v", code, resp)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	for path, want := range map[string]int{
		"/health":             http.StatusOK,
		"/health/ready":       http.StatusOK,
		"/metrics":            http.StatusOK,
		"/swagger/index.html": http.StatusOK,
	} {
		resp, err := http.Get(s.srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s: expected %d, got %d", path, want, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-Id") == "" {
			t.Fatalf("GET %s: missing request id", path)
		}
	}

	code, resp := s.do(http.MethodGet, "/nope", "", "")
	if code != http.StatusNotFound || resp["code"] != "route_not_found" {
		t.Fatalf("unknown route: %d %v", code, resp)
	}
}
