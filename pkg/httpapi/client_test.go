package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Do_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		scheme     string
		wantHeader string
	}{
		{
			name:       "no credential sends no header",
			wantHeader: "",
		},
		{
			name:       "bare credential",
			credential: "tok-123",
			wantHeader: "tok-123",
		},
		{
			name:       "credential with scheme",
			credential: "tok-123",
			scheme:     "Bearer",
			wantHeader: "Bearer tok-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHeader string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Get("Authorization")
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client := NewClient(Config{
				BaseURL:    server.URL,
				Credential: tt.credential,
				Scheme:     tt.scheme,
			})

			if _, err := client.Do(context.Background(), http.MethodGet, "/", nil, nil); err != nil {
				t.Fatalf("Do failed: %v", err)
			}
			if gotHeader != tt.wantHeader {
				t.Errorf("Authorization = %q, expected %q", gotHeader, tt.wantHeader)
			}
		})
	}
}

func TestClient_Do_DecodesAnyCompletedResponse(t *testing.T) {
	// Status policing is left to callers: a 404 payload still decodes.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	var out struct {
		Error string `json:"error"`
	}
	status, err := client.Do(context.Background(), http.MethodGet, "/things/nope", nil, &out)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", status)
	}
	if out.Error != "not found" {
		t.Errorf("decoded error = %q, expected %q", out.Error, "not found")
	}
}

func TestClient_Do_PostBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST request, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, expected application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Do(context.Background(), http.MethodPost, "/things", payload{Name: "x"}, nil); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got.Name != "x" {
		t.Errorf("posted name = %q, expected %q", got.Name, "x")
	}
}

func TestClient_Do_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Do(context.Background(), http.MethodGet, "/", nil, nil); err == nil {
		t.Fatal("expected transport error, got nil")
	}
}

func TestClient_SetCredential(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://example.invalid"})

	if client.IsAuthenticated() {
		t.Error("expected new client without credential to be unauthenticated")
	}

	updates := 0
	client.OnCredentialUpdate(func() { updates++ })

	client.SetCredential("tok", "Bearer")
	if !client.IsAuthenticated() {
		t.Error("expected client to be authenticated after SetCredential")
	}
	if updates != 1 {
		t.Errorf("expected 1 credential update notification, got %d", updates)
	}

	client.SetCredential("tok2", "")
	if updates != 2 {
		t.Errorf("expected 2 credential update notifications, got %d", updates)
	}
}
