// Package http implements the REST surface of the gateway.
//
// Handlers are thin: they validate names, call the service, and
// translate classified errors into JSON responses. They never inspect
// raw subprocess output.
package http
