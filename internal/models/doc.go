// Package models defines the public data shapes of the now-playing proxy.
//
// [Snapshot] is the only entity that ever crosses the response boundary. Upstream
// payloads are decoded into service-specific types (see package services) and
// normalized into a Snapshot before they reach a client.
package models
