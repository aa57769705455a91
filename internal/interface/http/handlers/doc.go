// Package handlers contains the reusable pieces of the HTTP interface that
// do not depend on the application layer: health aggregation and generic
// middleware.
package handlers
