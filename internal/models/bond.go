package models

import "time"

// Theme is the shared seasonal visual theme of a bond.
type Theme string

const (
	ThemeSpring  Theme = "spring"
	ThemeSummer  Theme = "summer"
	ThemeAutumn  Theme = "autumn"
	ThemeWinter  Theme = "winter"
	ThemeBlossom Theme = "blossom"
)

// DefaultQuote is shown until either participant sets their own.
const DefaultQuote = "Love is the bridge between two hearts"

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeSpring, ThemeSummer, ThemeAutumn, ThemeWinter, ThemeBlossom:
		return true
	}
	return false
}

// Bond represents a shared bond between two people.
// Created once by the initiating user; after creation only the theme changes.
type Bond struct {
	// ID is the unique identifier for the bond (UUID format).
	ID string `json:"id"`

	// Name is the human-readable name of the bond.
	Name string `json:"name"`

	// Reason is the free-text reason the bond exists.
	Reason string `json:"reason"`

	// StartDate is when the bond began.
	StartDate time.Time `json:"start_date"`

	// Theme is the shared seasonal theme.
	Theme Theme `json:"theme"`

	// Code is the short alphanumeric join code, stored uppercase and
	// matched case-insensitively.
	Code string `json:"code"`
}
