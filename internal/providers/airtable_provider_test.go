package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"comedyuo/showsync/internal/constants"
)

func newTestProvider(serverURL string) *AirtableProvider {
	return NewAirtableProvider(AirtableOptions{
		BaseURL:         serverURL,
		APIKey:          "test-key",
		BaseID:          "appTEST",
		TableName:       "Comedy Shows",
		RPS:             1000,
		BreakerFailures: 2,
	})
}

func TestAirtableProvider_ListAll_FollowsOffset(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.EscapedPath() != "/appTEST/Comedy%20Shows/listRecords" {
			t.Errorf("Unexpected path %s", r.URL.EscapedPath())
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)

		resp := AirtableListResponse{}
		if payload["offset"] == nil {
			resp.Records = []RemoteRecord{{ID: "rec1", Fields: map[string]interface{}{"Title": "One"}}}
			resp.Offset = "page2"
		} else {
			if payload["offset"] != "page2" {
				t.Errorf("Expected offset page2, got %v", payload["offset"])
			}
			resp.Records = []RemoteRecord{{ID: "rec2", Fields: map[string]interface{}{"Title": "Two"}}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	records, err := newTestProvider(server.URL).ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "rec1" || records[1].ID != "rec2" {
		t.Errorf("Unexpected records %+v", records)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 page calls, got %d", calls)
	}
}

func TestAirtableProvider_CreateSendsFieldsAndTypecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.EscapedPath() != "/appTEST/Comedy%20Shows" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}

		var payload struct {
			Fields   map[string]interface{} `json:"fields"`
			Typecast bool                   `json:"typecast"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if !payload.Typecast {
			t.Error("Expected typecast=true")
		}

		json.NewEncoder(w).Encode(RemoteRecord{
			ID:          "recNEW",
			CreatedTime: "2025-05-01T10:00:00.000Z",
			Fields:      payload.Fields,
		})
	}))
	defer server.Close()

	rec, err := newTestProvider(server.URL).Create(context.Background(), map[string]interface{}{"Title": "Open Mic"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.ID != "recNEW" {
		t.Errorf("Expected recNEW, got %s", rec.ID)
	}
	if rec.Fields["Title"] != "Open Mic" {
		t.Errorf("Expected echoed title, got %v", rec.Fields["Title"])
	}
}

func TestAirtableProvider_UpdateUsesPatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/rec123") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(RemoteRecord{ID: "rec123", Fields: map[string]interface{}{"Title": "Updated"}})
	}))
	defer server.Close()

	rec, err := newTestProvider(server.URL).Update(context.Background(), "rec123", map[string]interface{}{"Title": "Updated"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Fields["Title"] != "Updated" {
		t.Errorf("Expected Updated, got %v", rec.Fields["Title"])
	}
}

func TestAirtableProvider_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(AirtableDeleteResponse{ID: "rec123", Deleted: true})
	}))
	defer server.Close()

	if err := newTestProvider(server.URL).Delete(context.Background(), "rec123"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestAirtableProvider_NotFoundCarriesOpAndID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"MODEL_ID_NOT_FOUND","message":"Could not find record"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Get(context.Background(), "recMISSING")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var rse *RemoteStoreError
	if !errors.As(err, &rse) {
		t.Fatalf("Expected RemoteStoreError, got %T", err)
	}
	if rse.Op != OpGet || rse.RemoteID != "recMISSING" {
		t.Errorf("Expected op/id get/recMISSING, got %s/%s", rse.Op, rse.RemoteID)
	}
	if !IsRemoteNotFound(err) {
		t.Error("Expected IsRemoteNotFound")
	}
	if !strings.Contains(err.Error(), "Could not find record") {
		t.Errorf("Expected Airtable message in error, got %s", err.Error())
	}
}

func TestAirtableProvider_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).ListAll(context.Background())

	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Code != constants.ErrCodeInvalidAPIKey {
		t.Fatalf("Expected INVALID_API_KEY, got %v", err)
	}
	if rse.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rse.StatusCode)
	}
}

func TestAirtableProvider_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := provider.Get(ctx, "rec1"); err == nil {
			t.Fatal("Expected upstream error")
		}
	}

	_, err := provider.Get(ctx, "rec1")
	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Code != constants.ErrCodeCircuitOpen {
		t.Fatalf("Expected CIRCUIT_OPEN, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected breaker to short-circuit the third call, server saw %d", calls)
	}
}

func TestAirtableProvider_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	for i := 0; i < 4; i++ {
		_, err := provider.Get(context.Background(), "recX")
		if !IsRemoteNotFound(err) {
			t.Fatalf("Call %d: expected NOT_FOUND, got %v", i, err)
		}
	}
}

func TestAirtableProvider_NotConfigured(t *testing.T) {
	provider := NewAirtableProvider(AirtableOptions{BaseURL: "http://127.0.0.1:1"})

	_, err := provider.ListAll(context.Background())
	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Code != constants.ErrCodeNotConfigured {
		t.Fatalf("Expected NOT_CONFIGURED, got %v", err)
	}
	if rse.Op != OpList {
		t.Errorf("Expected op list, got %s", rse.Op)
	}
}

func TestAirtableProvider_EmptyIDRejected(t *testing.T) {
	provider := newTestProvider("http://127.0.0.1:1")
	if err := provider.Delete(context.Background(), " "); err == nil {
		t.Fatal("Expected error for empty record id")
	}
}
