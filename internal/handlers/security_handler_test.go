package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketledger/internal/services"
	"marketledger/internal/testutil"
	"marketledger/internal/validator"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Register()

	db := testutil.SetupTestDB(t)
	handler := NewSecurityHandler(services.NewMarketService(db))

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/securities", handler.ListSecurities)
	v1.GET("/securities/:code/records", handler.ListDailyRecords)
	return router, db
}

func performRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error.Code
}

func TestListSecuritiesEndpoint(t *testing.T) {
	router, db := setupRouter(t)
	defer testutil.TeardownTestDB(t, db)

	testutil.CreateTestSecurityWithCode(t, db, "2330", "台積電")
	testutil.CreateTestSecurityWithCode(t, db, "0050", "元大台灣50")

	t.Run("lists_ordered_by_code", func(t *testing.T) {
		w := performRequest(router, "/api/v1/securities")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var body struct {
			Data []struct {
				Code string `json:"code"`
				Name string `json:"name"`
			} `json:"data"`
			TotalItems int64 `json:"total_items"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.TotalItems != 2 {
			t.Fatalf("expected 2 securities, got %d", body.TotalItems)
		}
		if body.Data[0].Code != "0050" || body.Data[1].Code != "2330" {
			t.Errorf("unexpected order: %+v", body.Data)
		}
	})

	t.Run("rejects_invalid_page", func(t *testing.T) {
		w := performRequest(router, "/api/v1/securities?page=0")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := decodeError(t, w); code != "INVALID_INPUT" {
			t.Errorf("expected INVALID_INPUT, got %s", code)
		}
	})
}

func TestListDailyRecordsEndpoint(t *testing.T) {
	router, db := setupRouter(t)
	defer testutil.TeardownTestDB(t, db)

	security := testutil.CreateTestSecurityWithCode(t, db, "2330", "台積電")
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestDailyRecord(t, db, security, base)
	testutil.CreateTestDailyRecord(t, db, security, base.AddDate(0, 0, 3))

	t.Run("lists_records", func(t *testing.T) {
		w := performRequest(router, "/api/v1/securities/2330/records")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var body struct {
			Data []struct {
				Code   string `json:"code"`
				Volume int64  `json:"volume"`
			} `json:"data"`
			TotalItems int64 `json:"total_items"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.TotalItems != 2 {
			t.Fatalf("expected 2 records, got %d", body.TotalItems)
		}
		if body.Data[0].Code != "2330" || body.Data[0].Volume != 1000 {
			t.Errorf("unexpected record: %+v", body.Data[0])
		}
	})

	t.Run("unknown_code_is_404", func(t *testing.T) {
		w := performRequest(router, "/api/v1/securities/9999/records")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if code := decodeError(t, w); code != "SECURITY_NOT_FOUND" {
			t.Errorf("expected SECURITY_NOT_FOUND, got %s", code)
		}
	})

	t.Run("malformed_code_is_400", func(t *testing.T) {
		w := performRequest(router, "/api/v1/securities/a/records")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := decodeError(t, w); code != "INVALID_INPUT" {
			t.Errorf("expected INVALID_INPUT, got %s", code)
		}
	})
}
