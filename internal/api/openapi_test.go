package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildOpenAPIDoc_CoversRoutes(t *testing.T) {
	doc := buildOpenAPIDoc()

	if doc["openapi"] != "3.1.0" {
		t.Errorf("expected openapi 3.1.0, got %v", doc["openapi"])
	}
	info := doc["info"].(map[string]any)
	if info["version"] != Version {
		t.Errorf("expected version %s, got %v", Version, info["version"])
	}

	paths := doc["paths"].(map[string]any)
	want := map[string]string{
		"/":                        "get",
		"/status":                  "get",
		"/batches":                 "get",
		"/events":                  "get",
		"/webhook/mailgun":         "post",
		"/ingest-income-statement": "post",
	}
	if len(paths) != len(want) {
		t.Errorf("expected %d paths, got %d", len(want), len(paths))
	}
	for path, method := range want {
		item, ok := paths[path].(map[string]any)
		if !ok {
			t.Errorf("missing path %s", path)
			continue
		}
		if _, ok := item[method]; !ok {
			t.Errorf("path %s missing %s operation", path, method)
		}
	}
}

func TestBuildOpenAPIDoc_MailgunFields(t *testing.T) {
	doc := buildOpenAPIDoc()
	post := doc["paths"].(map[string]any)["/webhook/mailgun"].(map[string]any)["post"].(map[string]any)

	responses := post["responses"].(map[string]any)
	if _, ok := responses["401"]; !ok {
		t.Error("expected 401 response for mailgun webhook")
	}

	schema := post["requestBody"].(map[string]any)["content"].(map[string]any)["multipart/form-data"].(map[string]any)["schema"].(map[string]any)
	props := schema["properties"].(map[string]any)
	for _, field := range []string{"timestamp", "token", "signature", "attachment-1"} {
		if _, ok := props[field]; !ok {
			t.Errorf("expected form field %s", field)
		}
	}
}

func TestBuildOpenAPIDoc_DirectUploadHasNo401(t *testing.T) {
	doc := buildOpenAPIDoc()
	post := doc["paths"].(map[string]any)["/ingest-income-statement"].(map[string]any)["post"].(map[string]any)

	if _, ok := post["responses"].(map[string]any)["401"]; ok {
		t.Error("direct upload is unauthenticated and should not document 401")
	}
}

func TestHandleOpenAPI(t *testing.T) {
	server := newTestServer(Config{}, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("expected openapi 3.1.0, got %v", doc["openapi"])
	}
}
