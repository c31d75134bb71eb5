// Package console implements the view router of the admin console.
//
// # Views
//
// A Shell holds the state of one admin session and moves between four views:
//
//	login ──Login ok──▶ dashboard ──OpenAdd──────▶ add
//	  ▲                   │  ▲    ──OpenEdit ok──▶ edit
//	  │                   │  └──── Cancel / Save ok ───┘
//	  └────── Logout ─────┘
//
// Every transition is a method; calling one from the wrong view returns
// ErrInvalidTransition and changes nothing.
//
// # Failures
//
// Failures never leave the shell half-way. A wrong password keeps the login
// view. A list or record fetch failure keeps the dashboard. A save failure
// keeps the add or edit view with the draft intact. The Loading flag is
// cleared after every backend call regardless of outcome.
//
// # Concurrency
//
// The mutex guards state only. Backend calls run unlocked, so overlapping
// requests are not serialized and the last response to arrive wins.
// Responses that arrive after Logout are discarded.
package console
