// Package api serves the inbound WordPress management API used by the billing
// panel. All /api/v1 routes require an X-API-Key header.
package api
