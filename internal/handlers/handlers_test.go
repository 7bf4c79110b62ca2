package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"enchantment-resolver/internal/enchantments"
	"enchantment-resolver/internal/handlers"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, key int) enchantments.Resolution {
	args := m.Called(ctx, key)
	return args.Get(0).(enchantments.Resolution)
}

func (m *MockResolver) ResolveMultiple(ctx context.Context, keys []int) []enchantments.Resolution {
	args := m.Called(ctx, keys)
	return args.Get(0).([]enchantments.Resolution)
}

func (m *MockResolver) GetCacheStats(ctx context.Context) enchantments.CacheStats {
	args := m.Called(ctx)
	return args.Get(0).(enchantments.CacheStats)
}

func (m *MockResolver) ClearCache() {
	m.Called()
}

type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockBreaker struct {
	mock.Mock
}

func (m *MockBreaker) State() string {
	return m.Called().String(0)
}

func (m *MockBreaker) IsOpen() bool {
	return m.Called().Bool(0)
}

func newRouter(h *handlers.Handlers) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/enchantments", h.GetEnchantments).Methods("GET")
	router.HandleFunc("/api/enchantments/stats", h.GetCacheStats).Methods("GET")
	router.HandleFunc("/api/enchantments/cache", h.ClearCache).Methods("DELETE")
	router.HandleFunc("/api/enchantments/{id}", h.GetEnchantment).Methods("GET")
	return router
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func intPtr(v int) *int { return &v }

func TestGetEnchantment(t *testing.T) {
	resolver := new(MockResolver)
	router := newRouter(handlers.New(resolver, nil, nil, nil))

	berserking := enchantments.Resolution{Key: 3539, ItemID: intPtr(12345), Name: "Berserking", Category: enchantments.CategoryEnchant}
	resolver.On("Resolve", mock.Anything, 3539).Return(berserking)
	resolver.On("Resolve", mock.Anything, -1).Return(enchantments.Unknown(-1))

	t.Run("resolved", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/enchantments/3539")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"key":3539,"itemId":12345,"name":"Berserking","category":"enchant"}`, rec.Body.String())
	})

	t.Run("invalid key still resolves", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/enchantments/-1")
		require.Equal(t, http.StatusOK, rec.Code)

		var got enchantments.Resolution
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Unknown", got.Name)
		assert.Nil(t, got.ItemID)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/enchantments/berserking")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	resolver.AssertNumberOfCalls(t, "Resolve", 2)
}

func TestGetEnchantments(t *testing.T) {
	resolver := new(MockResolver)
	router := newRouter(handlers.New(resolver, nil, nil, nil))

	results := []enchantments.Resolution{
		{Key: 1, ItemID: intPtr(10), Name: "One", Category: enchantments.CategoryGem},
		enchantments.Fallback(2),
	}
	resolver.On("ResolveMultiple", mock.Anything, []int{1, 2, 1}).Return(results)

	rec := serve(router, http.MethodGet, "/api/enchantments?ids=1,%202,,1")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []enchantments.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, results, got)

	for _, target := range []string{"/api/enchantments", "/api/enchantments?ids=", "/api/enchantments?ids=1,x"} {
		rec := serve(router, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	resolver.AssertNumberOfCalls(t, "ResolveMultiple", 1)
}

func TestGetCacheStatsAndClear(t *testing.T) {
	resolver := new(MockResolver)
	router := newRouter(handlers.New(resolver, nil, nil, nil))

	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resolver.On("GetCacheStats", mock.Anything).Return(enchantments.CacheStats{
		Size:                4,
		InFlightCount:       2,
		QueueDepth:          1,
		CooldownActiveUntil: &until,
	})
	resolver.On("ClearCache").Return()

	rec := serve(router, http.MethodGet, "/api/enchantments/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"size":4,"inFlightCount":2,"queueDepth":1,"cooldownActiveUntil":"2026-01-02T03:04:05Z"}`, rec.Body.String())

	rec = serve(router, http.MethodDelete, "/api/enchantments/cache")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	resolver.AssertCalled(t, "ClearCache")
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		redis      bool
		redisErr   error
		breaker    string
		wantCode   int
		wantStatus map[string]string
	}{
		{
			name:       "healthy without redis",
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"status": "healthy", "database": "healthy", "redis": "not_configured", "source": "not_configured"},
		},
		{
			name:       "healthy with redis and closed breaker",
			redis:      true,
			breaker:    "closed",
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"status": "healthy", "database": "healthy", "redis": "healthy", "source": "closed"},
		},
		{
			name:       "redis down degrades",
			redis:      true,
			redisErr:   errors.New("connection refused"),
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"status": "degraded", "database": "healthy", "redis": "unhealthy", "source": "not_configured"},
		},
		{
			name:       "open breaker degrades",
			breaker:    "open",
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"status": "degraded", "database": "healthy", "redis": "not_configured", "source": "open"},
		},
		{
			name:       "database down",
			storeErr:   errors.New("database is locked"),
			breaker:    "open",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: map[string]string{"status": "unhealthy", "database": "unhealthy", "redis": "not_configured", "source": "open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockHealth)
			store.On("Health", mock.Anything).Return(tt.storeErr)

			var redis handlers.HealthChecker
			if tt.redis {
				r := new(MockHealth)
				r.On("Health", mock.Anything).Return(tt.redisErr)
				redis = r
			}

			var breaker handlers.SourceBreaker
			if tt.breaker != "" {
				b := new(MockBreaker)
				b.On("State").Return(tt.breaker)
				b.On("IsOpen").Return(tt.breaker == "open")
				breaker = b
			}

			router := newRouter(handlers.New(new(MockResolver), store, redis, breaker))
			rec := serve(router, http.MethodGet, "/health")

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got)
		})
	}
}
