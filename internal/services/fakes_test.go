package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"comedyuo/showsync/internal/common"
	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/db"
	"comedyuo/showsync/internal/db/repositories"
	"comedyuo/showsync/internal/providers"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeRemote is an in-memory RemoteStore
type fakeRemote struct {
	mu      sync.Mutex
	records map[string]providers.RemoteRecord
	order   []string
	nextID  int
	calls   map[string]int

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	lastCreate map[string]interface{}
	lastUpdate map[string]interface{}
	listHook   func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records: make(map[string]providers.RemoteRecord),
		calls:   make(map[string]int),
	}
}

func (f *fakeRemote) seed(fields map[string]interface{}) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(fields)
}

func (f *fakeRemote) insert(fields map[string]interface{}) string {
	f.nextID++
	id := fmt.Sprintf("rec%03d", f.nextID)
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	f.records[id] = providers.RemoteRecord{ID: id, Fields: copied}
	f.order = append(f.order, id)
	return id
}

func (f *fakeRemote) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
}

func (f *fakeRemote) setField(id, name string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id].Fields[name] = value
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func notFound(op, id string) error {
	return &providers.RemoteStoreError{Op: op, RemoteID: id, Code: constants.ErrCodeNotFound, Message: "not found"}
}

func (f *fakeRemote) ListAll(ctx context.Context) ([]providers.RemoteRecord, error) {
	f.mu.Lock()
	f.calls[providers.OpList]++
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []providers.RemoteRecord
	for _, id := range f.order {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRemote) Get(ctx context.Context, remoteID string) (*providers.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[providers.OpGet]++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[remoteID]
	if !ok {
		return nil, notFound(providers.OpGet, remoteID)
	}
	return &rec, nil
}

func (f *fakeRemote) Create(ctx context.Context, fields map[string]interface{}) (*providers.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[providers.OpCreate]++
	f.lastCreate = fields
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.insert(fields)
	rec := f.records[id]
	return &rec, nil
}

func (f *fakeRemote) Update(ctx context.Context, remoteID string, fields map[string]interface{}) (*providers.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[providers.OpUpdate]++
	f.lastUpdate = fields
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	rec, ok := f.records[remoteID]
	if !ok {
		return nil, notFound(providers.OpUpdate, remoteID)
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	return &rec, nil
}

func (f *fakeRemote) Delete(ctx context.Context, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[providers.OpDelete]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.records[remoteID]; !ok {
		return notFound(providers.OpDelete, remoteID)
	}
	delete(f.records, remoteID)
	return nil
}

// fakeEmail records sends
type fakeEmail struct {
	to     string
	invite providers.InviteContext
	err    error
}

func (f *fakeEmail) Send(ctx context.Context, to string, invite providers.InviteContext) (*providers.SendResult, error) {
	f.to = to
	f.invite = invite
	if f.err != nil {
		return &providers.SendResult{Status: "failed", StatusCode: 400}, f.err
	}
	return &providers.SendResult{Status: "sent", StatusCode: 202, Message: "ok"}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
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
	return gdb
}

type testEnv struct {
	remote  *fakeRemote
	shows   *repositories.ShowRepo
	history *repositories.ShowSyncHistoryRepo
	sync    *ShowSyncService
	svc     *ShowService
	email   *fakeEmail
}

func newTestEnv(t *testing.T, policy SyncPolicy, deletion DeletionPolicy) *testEnv {
	gdb := setupTestDB(t)
	remote := newFakeRemote()
	shows := repositories.NewShowRepo(gdb)
	history := repositories.NewShowSyncHistoryRepo(gdb)

	syncSvc := NewShowSyncService(remote, shows, history, deletion, nil)
	syncSvc.now = func() time.Time { return fixedNow }

	email := &fakeEmail{}
	svc := NewShowService(ShowServiceDeps{
		Remote:  remote,
		Shows:   shows,
		History: history,
		Sync:    syncSvc,
		Policy:  policy,
		Cache:   common.NewCacheService(time.Hour, time.Hour),
		Email:   email,
	})
	svc.now = func() time.Time { return fixedNow }

	return &testEnv{remote: remote, shows: shows, history: history, sync: syncSvc, svc: svc, email: email}
}

func remoteShow(title, date string) map[string]interface{} {
	return map[string]interface{}{
		"Title":    title,
		"Date":     date,
		"Location": "Venue A",
	}
}
