package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/backend/config"
	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/memory"
	"github.com/nutrisnap/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// Minimal JPEG header so content sniffing reports image/jpeg
var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00fake-image-body")

// fakeClassifier returns a fixed label or error
type fakeClassifier struct {
	label domain.FoodLabel
	err   error
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte) (domain.FoodLabel, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	now    time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*", "https://app.nutrisnap.io"},
		},
		Auth: config.AuthConfig{JWTSecret: testSecret},
	}
}

// setupTestEnv wires real services over an in-memory store. The resolver has no
// nutrition source, so every lookup takes the fallback table.
func setupTestEnv(t *testing.T, classifier domain.Classifier) *testEnv {
	t.Helper()

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	resolver := usecase.NewNutritionResolver(nil, nil, usecase.NutritionResolverConfig{})
	tracker := usecase.NewTrackerService(store, nil, usecase.TrackerServiceConfig{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})

	handler := NewHandler(resolver, tracker, classifier)
	return &testEnv{
		router: SetupRouter(testConfig(), handler),
		store:  store,
		now:    now,
	}
}

func bearer(t *testing.T, owner string) string {
	t.Helper()
	token, err := IssueToken([]byte(testSecret), owner, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", bearer(t, owner))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status without a token", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodGet, "/health", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "nutrisnap-backend", body["service"])
		version, ok := body["version"].(string)
		assert.True(t, ok && strings.TrimSpace(version) != "", "version = %v", body["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := env.do(t, method, "/health", "", nil)
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})
}

func TestAPIRequiresToken(t *testing.T) {
	env := setupTestEnv(t, nil)

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/classify"},
		{"POST", "/api/v1/classify/camera"},
		{"POST", "/api/v1/nutrition/resolve"},
		{"GET", "/api/v1/tracker"},
		{"POST", "/api/v1/tracker/entries"},
		{"DELETE", "/api/v1/tracker/entries/abc"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := env.do(t, ep.method, ep.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestResolveNutritionEndpoint(t *testing.T) {
	t.Run("returns scaled fallback record", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/nutrition/resolve", "alice",
			map[string]interface{}{"food_item": "Steak", "quantity": "200"})

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Steak", body["food_item"])
		assert.Equal(t, float64(542), body["calories"])
		assert.Equal(t, "200g", body["total_weight"])
		assert.Equal(t, "fallback", body["source"])

		nutrients := body["nutrients"].(map[string]interface{})
		assert.Equal(t, "50.0 g", nutrients["Protein"])
		assert.Equal(t, "130.0 mg", nutrients["Sodium"])
		assert.Len(t, nutrients, 9)
	})

	t.Run("accepts numeric quantity and lowercase label", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/nutrition/resolve", "alice",
			`{"food_item":"pizza","quantity":50}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Pizza", body["food_item"])
		assert.Equal(t, float64(142), body["calories"])
		assert.Equal(t, "18.0 g", body["nutrients"].(map[string]interface{})["Carbohydrates"])
	})

	t.Run("missing quantity defaults to 100g", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/nutrition/resolve", "alice", `{"food_item":"Pizza"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(285), body["calories"])
		assert.Equal(t, "100g", body["total_weight"])
	})

	t.Run("unsupported food yields N/A record", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/nutrition/resolve", "alice",
			`{"food_item":"Sushi","quantity":"150"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "N/A", body["calories"])
		assert.Empty(t, body["nutrients"])
		assert.Equal(t, "150g", body["total_weight"])
	})

	t.Run("rejects malformed requests", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		bodies := []string{
			`{invalid json}`,
			`{"quantity":"100"}`,
			`{"food_item":"<script>","quantity":"100"}`,
			`{"food_item":"Steak","quantity":{"grams":100}}`,
		}
		for _, b := range bodies {
			w := env.do(t, http.MethodPost, "/api/v1/nutrition/resolve", "alice", b)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", b)
		}
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		for _, method := range []string{"GET", "PUT", "PATCH"} {
			w := env.do(t, method, "/api/v1/nutrition/resolve", "alice", nil)
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})
}

func TestClassifyEndpoints(t *testing.T) {
	t.Run("classifies uploaded file", func(t *testing.T) {
		env := setupTestEnv(t, &fakeClassifier{label: domain.FoodPizza})

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "lunch.jpg")
		require.NoError(t, err)
		_, err = part.Write(jpegBytes)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", bearer(t, "alice"))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Pizza", body["prediction"])
		assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(jpegBytes), body["image_data"])
	})

	t.Run("upload without file is rejected", func(t *testing.T) {
		env := setupTestEnv(t, &fakeClassifier{label: domain.FoodPizza})

		w := env.do(t, http.MethodPost, "/api/v1/classify", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("classifies camera capture", func(t *testing.T) {
		env := setupTestEnv(t, &fakeClassifier{label: domain.FoodSteak})

		uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
		w := env.do(t, http.MethodPost, "/api/v1/classify/camera", "alice", map[string]string{"image": uri})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Steak", decodeBody(t, w)["prediction"])
	})

	t.Run("camera capture must be a data URI", func(t *testing.T) {
		env := setupTestEnv(t, &fakeClassifier{label: domain.FoodSteak})

		w := env.do(t, http.MethodPost, "/api/v1/classify/camera", "alice", map[string]string{"image": "hello"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("model not available", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
		w := env.do(t, http.MethodPost, "/api/v1/classify/camera", "alice", map[string]string{"image": uri})

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Model not available", decodeBody(t, w)["error"])
	})

	t.Run("no supported food detected", func(t *testing.T) {
		env := setupTestEnv(t, &fakeClassifier{err: domain.ErrNoFoodDetected})

		uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
		w := env.do(t, http.MethodPost, "/api/v1/classify/camera", "alice", map[string]string{"image": uri})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestTrackerEndpoints(t *testing.T) {
	t.Run("add entry then read dashboard", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice", map[string]interface{}{
			"food_item": "Steak",
			"quantity":  "200",
			"calories":  542,
			"nutrients": map[string]string{"Protein": "50.0 g", "Total Fat": "38.0 g", "Saturated Fat": "16.0 g"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		created := decodeBody(t, w)
		assert.NotEmpty(t, created["id"])
		assert.Equal(t, "alice", created["username"])
		assert.Equal(t, "2024-05-20", created["date"])
		assert.Equal(t, "lunch", created["meal_type"])
		assert.Equal(t, "542", created["calories"])

		w = env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice", map[string]interface{}{
			"food_item": "Pizza",
			"quantity":  "100",
			"calories":  "285",
			"nutrients": map[string]string{"Protein": "12.0 g"},
			"date":      "2024-05-01",
			"meal_type": "dinner",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = env.do(t, http.MethodGet, "/api/v1/tracker", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var dashboard domain.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
		assert.Equal(t, "alice", dashboard.Username)
		assert.Len(t, dashboard.TodayEntries, 1)
		assert.Len(t, dashboard.MonthlyEntries, 2)
		assert.Len(t, dashboard.RecentEntries, 2)
		assert.Equal(t, 542.0, dashboard.TodayTotals[domain.BucketCalories])
		assert.Equal(t, 50.0, dashboard.TodayTotals[domain.BucketProtein])
		assert.Equal(t, 38.0, dashboard.TodayTotals[domain.BucketFat])
		assert.Equal(t, 827.0, dashboard.MonthlyTotals[domain.BucketCalories])
		assert.Equal(t, 62.0, dashboard.MonthlyTotals[domain.BucketProtein])
		assert.Len(t, dashboard.MonthlyTotals, len(domain.AllBuckets))
	})

	t.Run("non-finite calories do not break the dashboard", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		for _, calories := range []string{"NaN", "Infinity", "542"} {
			w := env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice",
				map[string]interface{}{"food_item": "Steak", "calories": calories})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := env.do(t, http.MethodGet, "/api/v1/tracker", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, w.Body.Bytes())

		var dashboard domain.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
		assert.Len(t, dashboard.TodayEntries, 3)
		assert.Equal(t, 542.0, dashboard.TodayTotals[domain.BucketCalories])
		assert.Equal(t, 542.0, dashboard.MonthlyTotals[domain.BucketCalories])
	})

	t.Run("dashboard is scoped to the token owner", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice",
			map[string]interface{}{"food_item": "Pizza", "calories": "285"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/tracker", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var dashboard domain.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
		assert.Empty(t, dashboard.TodayEntries)
		assert.Empty(t, dashboard.RecentEntries)
		assert.Equal(t, 0.0, dashboard.TodayTotals[domain.BucketCalories])
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		bodies := []string{
			`{"quantity":"100"}`,
			`{"food_item":"Pizza","date":"20-05-2024"}`,
			`not json`,
		}
		for _, b := range bodies {
			w := env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice", b)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", b)
		}
	})

	t.Run("delete entry", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		w := env.do(t, http.MethodPost, "/api/v1/tracker/entries", "alice",
			map[string]interface{}{"food_item": "Pizza", "calories": "285"})
		require.Equal(t, http.StatusCreated, w.Code)
		id := decodeBody(t, w)["id"].(string)

		// Other users cannot delete it
		w = env.do(t, http.MethodDelete, "/api/v1/tracker/entries/"+id, "bob", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(t, http.MethodDelete, "/api/v1/tracker/entries/"+id, "alice", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodDelete, "/api/v1/tracker/entries/"+id, "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNotConfiguredDependencies(t *testing.T) {
	router := SetupRouter(testConfig(), NewHandler(nil, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracker", nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidRequest, http.StatusBadRequest},
		{domain.ErrInvalidImage, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrEntryNotFound, http.StatusNotFound},
		{domain.ErrNoFoodDetected, http.StatusUnprocessableEntity},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrModelUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for local dev server", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight on API route skips auth", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/nutrition/resolve", nil)
		req.Header.Set("Origin", "https://app.nutrisnap.io")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.nutrisnap.io", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	env := setupTestEnv(t, nil)

	// Add a test route that panics
	env.router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	// Gin's default recovery returns 500
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
