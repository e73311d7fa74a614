// Package api provides the tenant-resolution and admin REST API.
package api
