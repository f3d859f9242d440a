//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type clientInfo struct {
	ID          string
	AccessToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func createClient(t *testing.T, baseURL, displayName string) clientInfo {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()%100000),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal client payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/clients", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create client request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected client response status: %d", resp.StatusCode)
	}

	var out struct {
		ClientID    string `json:"client_id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode client response failed: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatalf("empty access token in client response")
	}

	return clientInfo{ID: out.ClientID, AccessToken: out.AccessToken}
}

// doRequest sends body with the given content type and bearer token. An
// empty token sends no Authorization header.
func doRequest(t *testing.T, method, url, token, contentType string, body []byte) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
