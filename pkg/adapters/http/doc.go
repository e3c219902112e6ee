/*
Package http exposes the engine bridge over HTTP.

Routes:

	POST /api/execute     {"command": "..."} -> {success, data, error, executionTime}
	POST /api/initialize  {}                 -> {success, message, error, executionTime}
	GET  /api/status                         -> {status, label, cause}
	GET  /openapi.yaml                       the embedded API description

Request bodies are validated against the embedded OpenAPI schema before they
are decoded. Engine failures are reported in the body with success=false and
status 200; only malformed requests get a 4xx.
*/
package http
