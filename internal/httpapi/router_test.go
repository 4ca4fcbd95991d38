package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/db"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/repository"
	"github.com/Leganyst/ordering-platform/internal/service"
)

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.NewSQLiteMemory()
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	rows := []any{
		&model.User{Username: "admin", Password: string(hash), Role: config.AdminRole},
		&model.User{Username: "cook", Password: string(hash), Role: "sagra"},
		&model.User{Username: "barman", Password: string(hash), Role: "bar"},
		&model.Subcategory{ID: 1, Name: "pizze", Order: 0},
		&model.Product{ID: 1, Name: "Pizza", Price: decimal.NewFromInt(7), Category: model.CategoryFoods, SubcategoryID: 1},
		&model.Variant{ID: 1, Name: "Large", Price: decimal.NewFromInt(9), ProductID: 1},
		&model.Ingredient{ID: 1, Name: "Extra cheese", Price: decimal.NewFromInt(1), ProductID: 1},
		&model.RoleProduct{Role: "sagra", ProductID: 1},
	}
	for _, r := range rows {
		require.NoError(t, gdb.Create(r).Error)
	}

	cfg := config.Default()
	cfg.Auth.JWTSecret = "router-test-secret"

	identity := service.NewIdentityService(repository.NewGormUserRepository(gdb), cfg.Auth)
	h := NewHandler(service.NewOrderService(gdb), service.NewCatalogService(gdb, cfg.Auth), identity)
	return &testServer{router: NewRouter(h, cfg)}
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"`+username+`","password":"password1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pair))
	return pair.Token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

const pizzaOrder = `{"info":{"client":"Mario","take_away":false,"table":2},
	"products":[{"id":1,"variant":1,"ingredients":[1],"quantity":1}],"menus":[]}`

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRouter_OrdersRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", "", pizzaOrder)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders", "garbage", pizzaOrder)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec).Error.Kind)
}

func TestRouter_CreateAndGetOrder(t *testing.T) {
	s := newTestServer(t)
	cook := s.login(t, "cook")

	rec := s.do(t, http.MethodPost, "/orders", cook, pizzaOrder)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		OrderID int64 `json:"order_id"`
	}
	createdEnv := decode(t, rec)
	assert.True(t, createdEnv.OK)
	require.NoError(t, json.Unmarshal(createdEnv.Data, &created))
	require.NotZero(t, created.OrderID)

	rec = s.do(t, http.MethodGet, "/orders/"+itoa(created.OrderID), cook, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view map[string][]struct {
		Name        string   `json:"name"`
		Variant     string   `json:"variant"`
		Ingredients []string `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	require.Len(t, view["foods"], 1)
	assert.Equal(t, "Pizza", view["foods"][0].Name)
	assert.Equal(t, "Large", view["foods"][0].Variant)
	assert.Equal(t, []string{"Extra cheese"}, view["foods"][0].Ingredients)
	_, hasDrinks := view["drinks"]
	assert.False(t, hasDrinks)

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &raw))
	line := raw["foods"][0]
	assert.EqualValues(t, 1, line["quantity"])
	assert.NotContains(t, line, "menu", "menu is set only for lines inside a menu")

	rec = s.do(t, http.MethodPut, "/orders/"+itoa(created.OrderID)+"/complete", cook, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/orders/"+itoa(created.OrderID)+"/complete", cook, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/"+itoa(created.OrderID)+"/events?size=1", cook, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var events struct {
		Items []struct {
			EventType string `json:"event_type"`
		} `json:"items"`
		Total   int  `json:"total"`
		HasNext bool `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &events))
	assert.Equal(t, 2, events.Total)
	assert.True(t, events.HasNext)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "order_created", events.Items[0].EventType)

	rec = s.do(t, http.MethodGet, "/orders/"+itoa(created.OrderID)+"/events", s.login(t, "barman"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// автор заказа и заказанный продукт остаются
	admin := s.login(t, "admin")
	rec = s.do(t, http.MethodDelete, "/users", admin, `{"username":"cook"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "Conflict", decode(t, rec).Error.Kind)
	rec = s.do(t, http.MethodDelete, "/products/1", admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodDelete, "/subcategories/1", admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_OrderErrors(t *testing.T) {
	s := newTestServer(t)
	cook := s.login(t, "cook")
	barman := s.login(t, "barman")

	cases := []struct {
		name   string
		token  string
		body   string
		status int
		kind   string
	}{
		{"not visible", barman, pizzaOrder, http.StatusForbidden, "NotVisible"},
		{"empty", cook, `{"info":{"client":"Mario","take_away":true},"products":[],"menus":[]}`, http.StatusBadRequest, "EmptySelection"},
		{"unknown field", cook, `{"info":{"client":"Mario","take_away":true},"products":[],"tip":5}`, http.StatusBadRequest, "MalformedRequest"},
		{"unknown product", cook, `{"info":{"client":"Mario","take_away":true},"products":[{"id":9,"quantity":1}]}`, http.StatusBadRequest, "UnknownEntity"},
		{"foreign ingredient", cook, `{"info":{"client":"Mario","take_away":true},"products":[{"id":1,"variant":1,"ingredients":[1,7],"quantity":1}]}`, http.StatusBadRequest, "UnknownEntity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/orders", tc.token, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			env := decode(t, rec)
			assert.False(t, env.OK)
			assert.Equal(t, tc.kind, env.Error.Kind)
		})
	}

	rec := s.do(t, http.MethodGet, "/orders/999", cook, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/orders/abc", cook, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	cook := s.login(t, "cook")
	admin := s.login(t, "admin")

	body := `{"name":"birre","order":1}`
	rec := s.do(t, http.MethodPost, "/subcategories", cook, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/subcategories", admin, body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/products", admin,
		`{"name":"Beer","price":"4.5","category":"drinks","subcategory_id":2,"roles":["bar"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/products", s.login(t, "barman"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Beer"`)
	assert.NotContains(t, rec.Body.String(), `"Pizza"`)

	rec = s.do(t, http.MethodGet, "/users", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/users", admin, `{"username":"admin"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RefreshToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"cook","password":"password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pair))

	rec = s.do(t, http.MethodPost, "/auth/token", pair.RefreshToken, `{"password":"password1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// refresh-токен не пускает к API
	rec = s.do(t, http.MethodGet, "/orders", pair.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", "", `{"username":"cook","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", "")

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_request_duration_seconds"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
