package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func TestAttemptRoutes(t *testing.T) {
	service := newTestService()
	server := newTestServer(service)
	defer server.Close()

	var attempt struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Passkey string `json:"passkey"`
		Stage   string `json:"stage"`
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/attempts", map[string]any{"name": "Alice"}, &attempt)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if attempt.Name != "Alice" || len(attempt.Passkey) != 6 || attempt.Stage != "verification" {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
	base := server.URL + "/api/attempts/" + attempt.ID

	var failure errorResponse
	resp = doJSON(t, http.MethodPost, base+"/verify", map[string]any{"passkey": "12ab"}, &failure)
	if resp.StatusCode != http.StatusBadRequest || failure.Fields["passkey"] == "" {
		t.Fatalf("expected passkey validation error, got %d %+v", resp.StatusCode, failure)
	}

	wrong := "100000"
	if attempt.Passkey == wrong {
		wrong = "100001"
	}
	resp = doJSON(t, http.MethodPost, base+"/verify", map[string]any{"passkey": wrong}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong passkey, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, base+"/verify", map[string]any{"passkey": attempt.Passkey}, &attempt)
	if resp.StatusCode != http.StatusOK || attempt.Stage != "camera" {
		t.Fatalf("expected camera stage, got %d %+v", resp.StatusCode, attempt)
	}

	resp = doJSON(t, http.MethodPost, base+"/photo", map[string]any{"photo": "data:image/jpeg;base64,AA=="}, &attempt)
	if resp.StatusCode != http.StatusOK || attempt.Stage != "quiz" {
		t.Fatalf("expected quiz stage, got %d %+v", resp.StatusCode, attempt)
	}

	resp = doJSON(t, http.MethodGet, base+"/results", nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before submission, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, base+"/feedback", map[string]any{"rating": 5}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for early feedback, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, base, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on retake, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, base, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after retake, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	server := newTestServer(newTestService())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/attempts", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp
}
