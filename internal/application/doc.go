// Package application provides application initialization and dependency wiring.
// It resolves the configured instance and solver backend, then either runs a
// single batch solve or assembles storage, handlers, routers and the HTTP
// server, keeping the main package focused on CLI parsing and orchestration.
package application
