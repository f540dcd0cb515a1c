package common

import (
	"testing"
	"time"
)

func TestCacheService_SetIfAbsent(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	if !cs.SetIfAbsent("k", "pending", time.Minute) {
		t.Fatal("Expected first SetIfAbsent to store the key")
	}
	if cs.SetIfAbsent("k", "other", time.Minute) {
		t.Fatal("Expected second SetIfAbsent to be refused")
	}

	v, ok := cs.Get("k")
	if !ok || v != "pending" {
		t.Errorf("Expected pending, got %v (found=%v)", v, ok)
	}

	cs.Set("k", "done", time.Minute)
	if v, _ := cs.Get("k"); v != "done" {
		t.Errorf("Expected Set to overwrite, got %v", v)
	}

	cs.Delete("k")
	if _, ok := cs.Get("k"); ok {
		t.Error("Expected key deleted")
	}
	if !cs.SetIfAbsent("k", "again", time.Minute) {
		t.Error("Expected SetIfAbsent to succeed after delete")
	}
}

func TestCacheService_Expiry(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	cs.Set("short", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := cs.Get("short"); ok {
		t.Error("Expected key to expire")
	}
	if !cs.SetIfAbsent("short", "v2", time.Minute) {
		t.Error("Expected expired key to be reusable")
	}
}
