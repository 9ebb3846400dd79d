// Package ui implements the live "watch" terminal view using bubbletea's Elm architecture.
//
// The [Model] polls a [services.Service] every [Options.Interval] and renders:
//   - the current track with a bubbles/progress bar, advanced locally between polls
//   - a bubbles/list of distinct tracks seen during the session
//   - contextual key help via charmbracelet/bubbles/help
//
// Messages flow through the Msg union type. A failed poll keeps the last snapshot on screen and shows the error
// beneath it. Keys: r refreshes, o opens the song in the browser, ? toggles help, q quits.
package ui
