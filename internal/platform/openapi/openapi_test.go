package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestGenerator() *Generator {
	g := NewGenerator("Test API", "1.0.0", "http://localhost:3000")
	g.AddSchema("Patient", map[string]interface{}{"type": "object"})
	g.AddOperations(
		Operation{
			Method: http.MethodGet, Path: "/api/patients", ID: "listPatients", Tag: "Patients",
			ResponseSchema: "Patient", List: true,
			Params: []Param{{Name: "limit", In: "query", Type: "integer"}},
		},
		Operation{
			Method: http.MethodGet, Path: "/api/patients/:id", ID: "getPatient", Tag: "Patients",
			ResponseSchema: "Patient", ErrorStatuses: []int{http.StatusNotFound},
			Params: []Param{{Name: "id", In: "path", Type: "string", Format: "uuid"}},
		},
		Operation{
			Method: http.MethodDelete, Path: "/api/patients/:id", ID: "deletePatient", Tag: "Patients",
			SuccessStatus: http.StatusNoContent,
		},
		Operation{
			Method: http.MethodGet, Path: "/health", ID: "liveness", Tag: "Health", Public: true,
		},
	)
	return g
}

func TestGenerateSpec_Structure(t *testing.T) {
	spec := newTestGenerator().GenerateSpec()

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected openapi 3.0.3, got %v", spec["openapi"])
	}
	info := spec["info"].(map[string]interface{})
	if info["title"] != "Test API" || info["version"] != "1.0.0" {
		t.Errorf("unexpected info: %v", info)
	}
	schemas := spec["components"].(map[string]interface{})["schemas"].(map[string]interface{})
	if _, ok := schemas["Error"]; !ok {
		t.Error("expected Error schema to always be present")
	}
	if _, ok := schemas["Patient"]; !ok {
		t.Error("expected Patient schema")
	}
	tags := spec["tags"].([]map[string]string)
	if len(tags) != 2 || tags[0]["name"] != "Health" || tags[1]["name"] != "Patients" {
		t.Errorf("unexpected tags: %v", tags)
	}
}

func TestGenerateSpec_PathParametersRewritten(t *testing.T) {
	paths := newTestGenerator().GenerateSpec()["paths"].(map[string]map[string]interface{})
	item, ok := paths["/api/patients/{id}"]
	if !ok {
		t.Fatalf("expected /api/patients/{id}, got %v", paths)
	}
	if _, ok := item["get"]; !ok {
		t.Error("expected get operation")
	}
	if _, ok := item["delete"]; !ok {
		t.Error("expected delete operation on the same path")
	}
	get := item["get"].(map[string]interface{})
	params := get["parameters"].([]map[string]interface{})
	if params[0]["required"] != true {
		t.Error("expected path parameter to be required")
	}
}

func TestGenerateSpec_Responses(t *testing.T) {
	paths := newTestGenerator().GenerateSpec()["paths"].(map[string]map[string]interface{})

	list := paths["/api/patients"]["get"].(map[string]interface{})
	responses := list["responses"].(map[string]interface{})
	ok := responses["200"].(map[string]interface{})
	schema := ok["content"].(map[string]interface{})["application/json"].(map[string]interface{})["schema"].(map[string]interface{})
	props := schema["properties"].(map[string]interface{})
	if props["data"].(map[string]interface{})["type"] != "array" {
		t.Error("expected list data to be an array")
	}
	if _, ok := props["count"]; !ok {
		t.Error("expected count on list responses")
	}
	for _, code := range []string{"401", "429"} {
		if _, ok := responses[code]; !ok {
			t.Errorf("expected %s on protected operation", code)
		}
	}

	del := paths["/api/patients/{id}"]["delete"].(map[string]interface{})
	if _, ok := del["responses"].(map[string]interface{})["204"]; !ok {
		t.Error("expected 204 on delete")
	}

	health := paths["/health"]["get"].(map[string]interface{})
	if sec := health["security"].([]map[string][]string); len(sec) != 0 {
		t.Errorf("expected public operation to clear security, got %v", sec)
	}
	if _, ok := health["responses"].(map[string]interface{})["401"]; ok {
		t.Error("public operation must not advertise 401")
	}
}

func TestGenerator_OpenAPIEndpoint(t *testing.T) {
	e := echo.New()
	newTestGenerator().RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	paths := doc["paths"].(map[string]interface{})
	if _, ok := paths["/api/patients/{id}"]; !ok {
		t.Errorf("expected path in served document, got %v", paths)
	}
}

func TestOpenAPIPath(t *testing.T) {
	tests := map[string]string{
		"/api/patients":     "/api/patients",
		"/api/patients/:id": "/api/patients/{id}",
		"/a/:x/b/:y":        "/a/{x}/b/{y}",
	}
	for in, want := range tests {
		if got := openAPIPath(in); got != want {
			t.Errorf("openAPIPath(%q) = %q, want %q", in, got, want)
		}
	}
}
