// Package swaggerkit assembles the OpenAPI document modules register operations into
// and serves it with Swagger UI
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"cardanoidx/internal/core/version"
	"cardanoidx/internal/platform/config"
	phttp "cardanoidx/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecMutator lets modules add or tweak parts of the OpenAPI document
type SpecMutator func(map[string]any)

// Param describes one path or query parameter of an operation
type Param struct {
	Name        string
	In          string // path or query
	Description string
	Type        string // string, integer, boolean
	Required    bool
}

var (
	mu       sync.Mutex
	mutators []SpecMutator
)

// Register adds a spec mutator; call it from module constructors
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// Operation returns a mutator that documents a single GET-style operation
// path is relative to the /api/v1 server url
func Operation(method, path, tag, summary string, params ...Param) SpecMutator {
	return func(spec map[string]any) {
		paths := child(spec, "paths")
		node := child(paths, path)

		ps := make([]any, 0, len(params))
		for _, p := range params {
			typ := p.Type
			if typ == "" {
				typ = "string"
			}
			ps = append(ps, map[string]any{
				"name":        p.Name,
				"in":          p.In,
				"description": p.Description,
				"required":    p.Required || p.In == "path",
				"schema":      map[string]any{"type": typ},
			})
		}
		node[strings.ToLower(method)] = map[string]any{
			"tags":       []any{tag},
			"summary":    summary,
			"parameters": ps,
			"responses": map[string]any{
				"200": map[string]any{
					"description": "OK",
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{"$ref": "#/components/schemas/Envelope"},
						},
					},
				},
			},
		}
	}
}

// Doc assembles the OpenAPI document from the skeleton and registered mutators
func Doc() map[string]any {
	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "cardanoidx API",
			"version": version.Info("cardanoidx-api").Version,
		},
		"paths": map[string]any{},
	}
	ensureServers(spec, "/api/v1")

	cfg := config.New().Prefix("CARDANOIDX_API_")
	if v := cfg.MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
		info := spec["info"].(map[string]any)
		info["title"] = info["title"].(string) + " " + v
	}

	ensureSchemas(spec)

	mu.Lock()
	ms := append([]SpecMutator(nil), mutators...)
	mu.Unlock()
	for _, m := range ms {
		m(spec)
	}

	addDefaultResponses(spec)
	return spec
}

const docsPath = "/api/docs"

// Mount serves the UI under /api/docs/ and the assembled document beside it
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsPath, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, docsPath+"/", http.StatusPermanentRedirect)
	})
	r.Get(docsPath+"/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Doc())
	})
	r.Handle(docsPath+"/*", httpSwagger.Handler(httpSwagger.URL(docsPath+"/doc.json"), httpSwagger.InstanceName("api")))
}

// ensureServers makes sure the document has a servers array
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{
			map[string]any{"url": url},
		}
	}
}

// ensureSchemas adds the envelope models, kept minimal so they do not drift from the runtime wire
func ensureSchemas(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["Envelope"]; !ok {
		schemas["Envelope"] = map[string]any{
			"type":        "object",
			"description": "Standard success response",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer", "format": "int32"},
				"status":      map[string]any{"type": "string"},
				"request_id":  map[string]any{"type": "string"},
				"data":        map[string]any{},
			},
			"required": []any{"status_code", "status"},
		}
	}
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = map[string]any{
			"type":        "object",
			"description": "Standard error response",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer", "format": "int32"},
				"status":      map[string]any{"type": "string"},
				"kind": map[string]any{"type": "string", "enum": []any{
					"invalid_argument", "validation", "json", "not_found", "ambiguous", "transport", "query", "panic", "unknown",
				}},
				"error":      map[string]any{"type": "string"},
				"field":      map[string]any{"type": "string"},
				"request_id": map[string]any{"type": "string"},
			},
			"required": []any{"status_code", "status"},
		}
	}
}

// defaultErrors are added to every operation that does not declare them
var defaultErrors = map[string]string{
	"400": "Bad Request",
	"404": "Not Found",
	"409": "Conflict",
	"422": "Unprocessable Entity",
	"500": "Internal Server Error",
	"502": "Bad Gateway",
	"503": "Service Unavailable",
}

// addDefaultResponses walks every operation and injects the error envelope responses
func addDefaultResponses(spec map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses := child(op, "responses")
			for code, desc := range defaultErrors {
				if _, exists := responses[code]; exists {
					continue
				}
				responses[code] = map[string]any{
					"description": desc,
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
						},
					},
				}
			}
		}
	}
}

// child returns m[key] as a map, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
