// Package api serves the prompt catalog as a JSON REST API.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/prompts?category=&tag=
//	GET  /api/prompts/{id}
//	GET  /api/prompts/{id}/related?limit=&exclude=&min_score=
//	GET  /api/search?q=&limit=&synonyms=
//	GET  /api/categories
//	GET  /api/tags
//	POST /api/recommendations
//	POST /api/users/{user}/signals
//	GET  /api/users/{user}/recommendations?limit=&tags=&categories=&exclude=
//
// Errors are returned as {"error": "..."}: malformed input is 400, unknown
// prompt ids are 404, and a catalog without a history store answers the
// user routes with 501.
package api
