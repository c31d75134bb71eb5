// Package dedupe provides one-time form tokens backed by a time-based cache
// so a form submitted twice (double click, browser retry) is saved once.
package dedupe
