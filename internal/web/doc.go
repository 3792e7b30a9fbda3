// ABOUTME: REST API adapter over the content manager
// ABOUTME: Serves /api routes, health and info endpoints, and the index page

// Package web exposes the content operations as a JSON REST API.
//
// Handlers call the manager directly and translate the domain envelope to
// HTTP: the envelope body is returned as-is, and the HTTP status mirrors the
// envelope error code (200 on success, 201 on create).
package web
