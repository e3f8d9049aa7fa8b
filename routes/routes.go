// Package routes wires the HTTP endpoints of the postal service.
//
//   - api.go: /v1 address and admin endpoints, health and the router
//   - web.go: the service index and endpoint listing
//   - middleware.go: request ids and access logging
package routes
