package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	gormio "gorm.io/gorm"

	"comedyuo/showsync/internal/api"
	"comedyuo/showsync/internal/auth"
	"comedyuo/showsync/internal/common"
	"comedyuo/showsync/internal/config"
	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/db"
	"comedyuo/showsync/internal/metrics"
	"comedyuo/showsync/internal/models/gorm"
	"comedyuo/showsync/internal/providers"
)

const testSecret = "router-test-secret"

// memoryRemote is a minimal in-memory RemoteStore
type memoryRemote struct {
	mu         sync.Mutex
	records    map[string]providers.RemoteRecord
	nextID     int
	creates    int
	lastCreate map[string]interface{}
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{records: make(map[string]providers.RemoteRecord)}
}

func (m *memoryRemote) ListAll(ctx context.Context) ([]providers.RemoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]providers.RemoteRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memoryRemote) Get(ctx context.Context, remoteID string) (*providers.RemoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[remoteID]
	if !ok {
		return nil, &providers.RemoteStoreError{Op: providers.OpGet, RemoteID: remoteID, Code: constants.ErrCodeNotFound, Message: "not found"}
	}
	return &rec, nil
}

func (m *memoryRemote) Create(ctx context.Context, fields map[string]interface{}) (*providers.RemoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.lastCreate = fields
	m.nextID++
	rec := providers.RemoteRecord{ID: fmt.Sprintf("rec%03d", m.nextID), Fields: fields}
	m.records[rec.ID] = rec
	return &rec, nil
}

func (m *memoryRemote) Update(ctx context.Context, remoteID string, fields map[string]interface{}) (*providers.RemoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[remoteID]
	for k, v := range fields {
		rec.Fields[k] = v
	}
	return &rec, nil
}

func (m *memoryRemote) Delete(ctx context.Context, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, remoteID)
	return nil
}

type testServer struct {
	handler http.Handler
	remote  *memoryRemote
	gormDB  *gormio.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb, err := gormio.Open(sqlite.Open(":memory:"), &gormio.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cfg := &config.Config{
		Sync: config.SyncConfig{Policy: "remote", DeletionPolicy: "keep"},
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		AdminAuth:      config.AdminAuthConfig{TokenSecret: testSecret},
		IdempotencyTTL: time.Hour,
	}

	reg := prometheus.NewRegistry()
	remote := newMemoryRemote()
	deps, err := api.InitDependencies(cfg, gdb, metrics.NewMetricsRegistry(reg), remote,
		common.NewCacheService(time.Hour, time.Hour), providers.NewSendGridProvider(providers.SendGridOptions{}))
	if err != nil {
		t.Fatalf("Failed to init dependencies: %v", err)
	}

	handler := RegisterRoutes(cfg, deps, sqlx.NewDb(sqlDB, "sqlite3"), reg, time.Now())
	return &testServer{handler: handler, remote: remote, gormDB: gdb}
}

func (s *testServer) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		token, err := auth.IssueAdminToken([]byte(testSecret), "test", time.Hour)
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

type showEnvelope struct {
	Success bool      `json:"success"`
	Data    gorm.Show `json:"data"`
	Error   string    `json:"error"`
}

func TestOpenMicScenario(t *testing.T) {
	srv := newTestServer(t)

	body := `{"title":"Open Mic","date_time":"2025-06-01T20:00:00Z","location":"Venue A"}`
	rr := srv.do(t, "POST", "/shows", body, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created showEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}

	if srv.remote.creates != 1 {
		t.Errorf("Expected one remote create, got %d", srv.remote.creates)
	}
	sent := srv.remote.lastCreate
	if sent["Title"] != "Open Mic" || sent["Location"] != "Venue A" || sent["Date"] == nil {
		t.Errorf("Expected translated remote fields, got %v", sent)
	}

	var rows []gorm.Show
	if err := srv.gormDB.Find(&rows).Error; err != nil {
		t.Fatalf("Failed to read local rows: %v", err)
	}
	if len(rows) != 1 || rows[0].RemoteID != created.Data.RemoteID || rows[0].RemoteID == "" {
		t.Fatalf("Expected one local row linked to the remote record, got %+v", rows)
	}

	rr = srv.do(t, "GET", fmt.Sprintf("/shows/%d", created.Data.ID), "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var fetched showEnvelope
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.Data.Title != "Open Mic" || fetched.Data.Location != "Venue A" {
		t.Errorf("Expected Open Mic at Venue A, got %+v", fetched.Data)
	}
}

func TestWriteRoutesRequireAdminToken(t *testing.T) {
	srv := newTestServer(t)

	body := `{"title":"Open Mic","date_time":"2025-06-01T20:00:00Z","location":"Venue A"}`
	rr := srv.do(t, "POST", "/shows", body, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
	if srv.remote.creates != 0 {
		t.Errorf("Expected no remote create, got %d", srv.remote.creates)
	}

	for _, path := range []string{"/shows/sync"} {
		if rr := srv.do(t, "POST", path, "", false); rr.Code != http.StatusUnauthorized {
			t.Errorf("POST %s: expected 401, got %d", path, rr.Code)
		}
	}
	if rr := srv.do(t, "DELETE", "/shows/1", "", false); rr.Code != http.StatusUnauthorized {
		t.Errorf("DELETE: expected 401, got %d", rr.Code)
	}
}

func TestReadRoutesArePublic(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/shows", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Errorf("Expected count 0, got %s", rr.Body.String())
	}

	rr = srv.do(t, "GET", "/shows/sync/status", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for sync status, got %d", rr.Code)
	}
}

func TestSyncThenStatus(t *testing.T) {
	srv := newTestServer(t)
	srv.remote.Create(context.Background(), map[string]interface{}{
		"Title": "Late Show", "Date": "2025-07-01T21:00:00Z", "Location": "Venue B",
	})

	rr := srv.do(t, "POST", "/shows/sync", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"message":"synced 1 shows"`) {
		t.Errorf("Unexpected sync body %s", rr.Body.String())
	}

	rr = srv.do(t, "GET", "/shows/sync/status", "", false)
	var status struct {
		Data struct {
			SyncedCount int   `json:"synced_count"`
			LocalCount  int64 `json:"local_count"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &status)
	if status.Data.SyncedCount != 1 || status.Data.LocalCount != 1 {
		t.Errorf("Expected synced 1 / local 1, got %+v", status.Data)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/healthCheck", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("Expected ok status, got %s", rr.Body.String())
	}

	rr = srv.do(t, "GET", "/metrics", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /metrics, got %d", rr.Code)
	}
	raw, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(raw), "showsync_http_requests_total") {
		t.Error("Expected HTTP request counter in metrics output")
	}
}
