// Package views derives the read-only views shown after every change: the
// day's timeline, the per-category summary, chart series for a date range and
// the month calendar. Each view re-queries the store on its own.
package views
