package platform_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketomega/support-agent/internal/platform"
)

func TestClient_GetConversation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Intercom-Version") != "2.14" {
			t.Errorf("expected Intercom-Version header, got %q", r.Header.Get("Intercom-Version"))
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"id": "123", "state": "open"})
	}))
	defer srv.Close()

	client := platform.NewClient(srv.URL, "test-token")
	conv, err := client.GetConversation(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv["id"] != "123" {
		t.Errorf("expected id=123, got %v", conv["id"])
	}
}

func TestClient_RetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"id": "123"})
	}))
	defer srv.Close()

	client := platform.NewClient(srv.URL, "test-token")
	_, err := client.GetConversation(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts (2 retries), got %d", attempts)
	}
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := platform.NewClient(srv.URL, "test-token")
	_, err := client.GetConversation(context.Background(), "123")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", attempts)
	}
}

func TestClient_UpdateCustomAttribute_RejectsInvalidName(t *testing.T) {
	client := platform.NewClient("http://example.invalid", "token")
	err := client.UpdateCustomAttribute(context.Background(), "123", "bad;name", "value")
	if err == nil {
		t.Fatal("expected error for invalid attribute name")
	}
}

func TestClient_UpdateCustomAttribute_AllowsBracketsAndSpaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"id": "123"})
	}))
	defer srv.Close()

	client := platform.NewClient(srv.URL, "token")
	err := client.UpdateCustomAttribute(context.Background(), "123", "Melvin Status [v1]", "success")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
