// Package server serves job search over HTTP using gin.
//
// Routes:
//
//	GET  /healthz                liveness
//	GET  /api/search?q=...       search with URL parameters
//	POST /api/search             search with a JSON search.Request body
//	GET  /api/status             engine status
//	POST /api/admin/invalidate   drop the cached corpus and vectors
//
// Every failure is rendered as {"error": {"code", "message", "request_id"}}.
package server
