// Package http serves presigned POSTs over HTTP.
//
// # Routes
//
//   - GET /signed-post: issues a presigned POST under a server-generated key
//     and returns {"url": ..., "fields": {...}}
//   - GET /slips: lists issued slips (prefix, limit, cursor query parameters)
//   - GET /slips/{id}: returns one issued slip
//   - GET /healthz: liveness probe
//   - GET /: embedded uploader page that fetches /signed-post and POSTs a file
//     straight to the bucket
//
// Errors are JSON {"error": code, "message": msg}. Credential failures map to
// 503 credentials_unavailable, invalid input to 400, anything else to 500.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{}, slipService)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//	srv.ListenAndServe()
package http
