package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketledger/internal/handlers"
	"marketledger/internal/logger"
	"marketledger/internal/middleware"
	"marketledger/internal/pipeline"
	"marketledger/internal/services"
	"marketledger/internal/testutil"
	"marketledger/internal/twse"
	"marketledger/internal/validator"
)

// testApp holds the full application stack for integration tests: the
// ingestion pipeline wired against a fake exchange server, plus the query
// API router sharing the same database.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Pipeline *pipeline.Pipeline
	Notifier *recorderNotifier
	Exchange *httptest.Server
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full stack backed by an isolated in-memory SQLite and
// the given exchange handler.
func setupApp(t *testing.T, exchange http.HandlerFunc) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	server := httptest.NewServer(exchange)
	t.Cleanup(server.Close)

	notifier := &recorderNotifier{}
	p := pipeline.New(db,
		twse.NewClient(server.URL, server.Client()),
		twse.NewNormalizer(twse.DefaultFieldMap()),
		services.NewResolverService(),
		services.NewLedgerService(),
		notifier,
	)

	securityHandler := handlers.NewSecurityHandler(services.NewMarketService(db))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.GET("/securities", securityHandler.ListSecurities)
	v1.GET("/securities/:code/records", securityHandler.ListDailyRecords)

	return &testApp{DB: db, Router: router, Pipeline: p, Notifier: notifier, Exchange: server}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}
