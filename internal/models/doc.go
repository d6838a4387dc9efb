// Package models defines the core domain models for HeartBond.
//
// # Models
//
//   - Bond: the shared two-person bond (name, reason, theme, join code)
//   - Membership: associates a device user id with a bond
//   - BondSettings: per-bond shared settings (the quote)
//   - BondData: append-style per-user record of status/activity/plan
//   - BondSnapshot: the merged view the presentation layer reads
//
// There are no user accounts: a "user" is a random per-device identifier
// generated on first run. Relationships use ID strings instead of pointers
// to avoid circular references.
//
// BondData keeps its free-text fields as *string so that a row (or a change
// feed payload built from one) can distinguish a field that was never written
// from one set to the empty string. Reconciliation relies on that: absent
// fields must never reset a previously seen value.
package models
