// Package openapi assembles an OpenAPI 3.0 document from the operations each
// domain package describes, and serves it.
package openapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Param is a path or query parameter.
type Param struct {
	Name        string
	In          string // "path" or "query"
	Type        string
	Format      string
	Description string
	Required    bool
}

// Operation describes one route. Path uses echo syntax (":id").
type Operation struct {
	Method  string
	Path    string
	ID      string
	Summary string
	Tag     string
	Params  []Param

	// RequestSchema and ResponseSchema name entries in components.schemas.
	RequestSchema  string
	ResponseSchema string
	// List wraps the response schema as {data: [...], count}.
	List          bool
	SuccessStatus int
	ErrorStatuses []int
	Public        bool
}

// Generator collects operations and schemas into one document.
type Generator struct {
	title   string
	version string
	baseURL string
	ops     []Operation
	schemas map[string]interface{}
}

func NewGenerator(title, version, baseURL string) *Generator {
	return &Generator{
		title:   title,
		version: version,
		baseURL: baseURL,
		schemas: map[string]interface{}{"Error": errorSchema()},
	}
}

func (g *Generator) AddSchema(name string, schema map[string]interface{}) {
	g.schemas[name] = schema
}

func (g *Generator) AddOperations(ops ...Operation) {
	g.ops = append(g.ops, ops...)
}

// GenerateSpec produces the OpenAPI document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	var tags []string
	seenTags := map[string]bool{}

	for _, op := range g.ops {
		p := openAPIPath(op.Path)
		if paths[p] == nil {
			paths[p] = make(map[string]interface{})
		}
		paths[p][strings.ToLower(op.Method)] = g.buildOperation(op)
		if op.Tag != "" && !seenTags[op.Tag] {
			seenTags[op.Tag] = true
			tags = append(tags, op.Tag)
		}
	}
	sort.Strings(tags)

	tagList := make([]map[string]string, len(tags))
	for i, t := range tags {
		tagList[i] = map[string]string{"name": t}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"tags":  tagList,
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas,
			"securitySchemes": map[string]interface{}{
				"apiKey": map[string]interface{}{
					"type": "apiKey",
					"in":   "header",
					"name": "X-API-Key",
				},
			},
		},
		"security": []map[string][]string{
			{"apiKey": {}},
		},
	}
}

func (g *Generator) buildOperation(op Operation) map[string]interface{} {
	out := map[string]interface{}{
		"summary":     op.Summary,
		"operationId": op.ID,
	}
	if op.Tag != "" {
		out["tags"] = []string{op.Tag}
	}
	if op.Public {
		out["security"] = []map[string][]string{}
	}

	if len(op.Params) > 0 {
		params := make([]map[string]interface{}, 0, len(op.Params))
		for _, p := range op.Params {
			schema := map[string]interface{}{"type": p.Type}
			if p.Format != "" {
				schema["format"] = p.Format
			}
			param := map[string]interface{}{
				"name":     p.Name,
				"in":       p.In,
				"required": p.Required || p.In == "path",
				"schema":   schema,
			}
			if p.Description != "" {
				param["description"] = p.Description
			}
			params = append(params, param)
		}
		out["parameters"] = params
	}

	if op.RequestSchema != "" {
		out["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": ref(op.RequestSchema),
				},
			},
		}
	}

	status := op.SuccessStatus
	if status == 0 {
		status = http.StatusOK
	}
	responses := map[string]interface{}{
		strconv.Itoa(status): g.successResponse(op, status),
	}
	for _, code := range op.ErrorStatuses {
		responses[strconv.Itoa(code)] = buildResponseWithSchema(http.StatusText(code), ref("Error"))
	}
	if !op.Public {
		responses["401"] = buildResponseWithSchema(http.StatusText(http.StatusUnauthorized), ref("Error"))
		responses["429"] = buildResponseWithSchema(http.StatusText(http.StatusTooManyRequests), ref("Error"))
	}
	out["responses"] = responses
	return out
}

func (g *Generator) successResponse(op Operation, status int) map[string]interface{} {
	if status == http.StatusNoContent || op.ResponseSchema == "" {
		return map[string]interface{}{"description": http.StatusText(status)}
	}

	var data map[string]interface{}
	props := map[string]interface{}{}
	if op.List {
		data = map[string]interface{}{"type": "array", "items": ref(op.ResponseSchema)}
		props["count"] = map[string]interface{}{"type": "integer", "minimum": 0}
	} else {
		data = ref(op.ResponseSchema)
	}
	props["data"] = data

	required := []string{"data"}
	if op.List {
		required = append(required, "count")
	}
	return buildResponseWithSchema(http.StatusText(status), map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
}

func buildResponseWithSchema(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error": map[string]interface{}{"type": "string"},
			"details": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"path":    map[string]interface{}{"type": "string"},
						"message": map[string]interface{}{"type": "string"},
					},
				},
			},
			"retryAfter": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"error"},
	}
}

// openAPIPath rewrites echo path parameters into OpenAPI form.
func openAPIPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// RegisterRoutes serves the document at /openapi.json.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	spec := g.GenerateSpec()
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, spec)
	})
}
