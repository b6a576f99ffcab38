// Package admin implements an interactive operator console for the
// photogallery backend. It talks to the configured store directly rather
// than through the HTTP API, so it can create accounts and inspect data
// while the server is down.
package admin
