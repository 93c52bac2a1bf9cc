package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the JSON API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Arogya AI API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document for the JSON routes. Page routes are omitted.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "arogya-backend", "version": "v1.0.0" },
  "paths": {
    "/session_login": {
      "post": {
        "summary": "Exchange an identity-provider ID token for a session cookie",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["idToken"],"properties":{"idToken":{"type":"string"}}}}}},
        "responses": {
          "200": { "description": "{status: success, message}; sets the session cookie" },
          "400": { "description": "idToken missing" },
          "401": { "description": "{status: error, message}" }
        }
      }
    },
    "/chat": {
      "post": {
        "summary": "Send one message to the coach",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["message"],"properties":{"message":{"type":"string"}}}}}},
        "responses": {
          "200": { "description": "{reply}" },
          "400": { "description": "{error}: empty message" },
          "401": { "description": "{error}: no session" },
          "500": { "description": "{error}: AI provider failure" }
        }
      }
    },
    "/logout": { "get": { "summary": "Destroy the session", "responses": { "302": { "description": "redirect to /" } } } },
    "/api/me": {
      "get": { "summary": "Current user record", "responses": { "200": { "description": "{user}" }, "401": { "description": "no session" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
