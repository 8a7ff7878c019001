// Package httpapi serves the analyzer over HTTP with a chi router.
//
// Endpoints:
//
//	POST /v1/tokenize   {"source": "..."} -> classified tokens and lexical errors
//	POST /v1/parse      {"source": "..."} -> summary, syntax and lexical errors
//	POST /v1/analyze    {"source": "..."} -> tokens, errors and summary together
//	GET  /v1/search     ?root=DIR&q=QUERY[&kind=][&stereotype=][&package=][&file=][&limit=]
//	GET  /healthz
//	GET  /metrics       Prometheus exposition
//
// Malformed input is not an HTTP error: a source with syntax errors returns
// 200 with the errors in the body. Request bodies are limited to
// MaxSourceBytes.
package httpapi
