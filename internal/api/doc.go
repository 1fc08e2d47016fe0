// Package api wires the HTTP surface: the REST routes for accounts and room
// views, and the websocket endpoint the chat core runs behind.
package api
