package api

import (
	"encoding/json"
	"net/http"
)

// DocHandler serves a static OpenAPI description of the console API plus a
// Swagger UI page that loads it.
type DocHandler struct{}

func NewDocHandler() *DocHandler {
	return &DocHandler{}
}

func (h *DocHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	html := `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>CloudSqlConsole API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
        window.ui = SwaggerUIBundle({
            url: '/api/docs/openapi.json',
            dom_id: '#swagger-ui',
        });
    };
</script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

func (h *DocHandler) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	executeOp := map[string]any{
		"summary": "Execute SQL against a registered connection",
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"connection_id": map[string]any{"type": "integer"},
							"query":         map[string]any{"type": "string"},
							"limit":         map[string]any{"type": "integer", "default": 100, "maximum": 1000},
							"offset":        map[string]any{"type": "integer", "default": 0},
						},
					},
				},
			},
		},
		"responses": map[string]any{
			"200": map[string]any{"description": "Canonical execution result"},
			"400": map[string]any{"description": "Invalid pagination or driver rejection"},
			"401": map[string]any{"description": "AUTH_REQUIRED"},
			"403": map[string]any{"description": "READ_ONLY_REQUIRED or INSUFFICIENT_PERMISSIONS"},
		},
	}

	spec := map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "CloudSqlConsole API",
			"version":     "1.0.0",
			"description": "Role-gated SQL console over registered MySQL/PostgreSQL connections.",
		},
		"paths": map[string]any{
			"/api/auth/login": map[string]any{
				"post": map[string]any{
					"summary": "Authenticate and receive the session cookie",
					"responses": map[string]any{
						"200": map[string]any{"description": "User identity"},
						"401": map[string]any{"description": "INVALID_CREDENTIALS"},
					},
				},
			},
			"/api/auth/logout": map[string]any{
				"post": map[string]any{"summary": "Delete the session", "responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/auth/me": map[string]any{
				"get": map[string]any{"summary": "Current user", "responses": map[string]any{"200": map[string]any{"description": "User identity"}}},
			},
			"/api/query/execute": map[string]any{"post": executeOp},
			"/api/connections": map[string]any{
				"get":  map[string]any{"summary": "List connection profiles", "responses": map[string]any{"200": map[string]any{"description": "OK"}}},
				"post": map[string]any{"summary": "Register a connection profile", "responses": map[string]any{"201": map[string]any{"description": "Created"}}},
			},
			"/api/connections/{id}/test": map[string]any{
				"post": map[string]any{"summary": "Liveness-check a profile", "responses": map[string]any{"200": map[string]any{"description": "{success: bool}"}}},
			},
			"/api/connections/{id}/activate": map[string]any{
				"post": map[string]any{"summary": "Make this the single active profile", "responses": map[string]any{"200": map[string]any{"description": "{success: bool}"}}},
			},
			"/api/connections/{id}/schema": map[string]any{
				"get": map[string]any{"summary": "List tables with approximate row counts", "responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/export/csv": map[string]any{
				"post": map[string]any{"summary": "Re-encode a result as CSV", "responses": map[string]any{"200": map[string]any{"description": "text/csv"}}},
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"SessionCookie": map[string]any{
					"type": "apiKey",
					"in":   "cookie",
					"name": "sessionToken",
				},
			},
		},
		"security": []map[string]any{
			{"SessionCookie": []string{}},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
