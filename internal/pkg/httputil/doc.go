// Package httputil holds the JSON envelope and body decoding shared by the
// /api handlers.
package httputil
