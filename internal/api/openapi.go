package api

// buildOpenAPIDoc returns an OpenAPI 3.1 document covering the service routes.
func buildOpenAPIDoc() map[string]any {
	uploadBody := func(field, description string) map[string]any {
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"multipart/form-data": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							field: map[string]any{
								"type":        "string",
								"format":      "binary",
								"description": description,
							},
						},
					},
				},
			},
		}
	}

	ackResponses := map[string]any{
		"200": map[string]any{"description": "CSV accepted and queued"},
		"400": map[string]any{"description": "No usable CSV in the request"},
		"413": map[string]any{"description": "Request body too large"},
		"429": map[string]any{"description": "Rate limited"},
		"503": map[string]any{"description": "Processing queue unavailable"},
	}

	mailgunResponses := map[string]any{"401": map[string]any{"description": "Invalid or stale signature"}}
	for code, v := range ackResponses {
		mailgunResponses[code] = v
	}

	mailgunBody := uploadBody("attachment-1", "CSV attachment")
	props := mailgunBody["content"].(map[string]any)["multipart/form-data"].(map[string]any)["schema"].(map[string]any)["properties"].(map[string]any)
	for _, f := range []string{"timestamp", "token", "signature"} {
		props[f] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   ServiceName,
			"version": Version,
		},
		"paths": map[string]any{
			"/": map[string]any{
				"get": map[string]any{
					"operationId": "health",
					"summary":     "Liveness check",
					"responses":   map[string]any{"200": map[string]any{"description": "Service is up"}},
				},
			},
			"/status": map[string]any{
				"get": map[string]any{
					"operationId": "status",
					"summary":     "Configuration presence and processing counters",
					"responses":   map[string]any{"200": map[string]any{"description": "Status snapshot"}},
				},
			},
			"/batches": map[string]any{
				"get": map[string]any{
					"operationId": "listBatches",
					"summary":     "Recent batch outcomes",
					"parameters": []any{map[string]any{
						"name":   "limit",
						"in":     "query",
						"schema": map[string]any{"type": "integer", "minimum": 1},
					}},
					"responses": map[string]any{
						"200": map[string]any{"description": "Batch list"},
						"400": map[string]any{"description": "Invalid limit"},
					},
				},
			},
			"/events": map[string]any{
				"get": map[string]any{
					"operationId": "events",
					"summary":     "Batch lifecycle events as Server-Sent Events",
					"responses":   map[string]any{"200": map[string]any{"description": "text/event-stream"}},
				},
			},
			"/webhook/mailgun": map[string]any{
				"post": map[string]any{
					"operationId": "mailgunWebhook",
					"summary":     "Signed Mailgun inbound route",
					"requestBody": mailgunBody,
					"responses":   mailgunResponses,
				},
			},
			"/ingest-income-statement": map[string]any{
				"post": map[string]any{
					"operationId": "directUpload",
					"summary":     "Unauthenticated CSV upload",
					"requestBody": uploadBody("file", "Income statement CSV"),
					"responses":   ackResponses,
				},
			},
		},
	}
}
