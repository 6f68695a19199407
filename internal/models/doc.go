// Package models defines the core domain models for HomeBase.
//
// # Models
//
//   - User: registered account; holds at most one household reference
//   - Household: group of users sharing chores and expenses, joined by code
//   - Chore: household task assigned to one or more members
//   - Expense: shared cost with a split ledger and an optional recurrence
//   - Notification: in-app message addressed to one or more users
//   - PushSubscription: browser web-push endpoint registered by a user
//
// # Design Principles
//
// 1. Relationships are ID strings, never pointers.
// 2. Membership is owned by the user: User.HouseholdID is the only link, so
// joining or leaving is a single field update.
// 3. Models carry JSON tags for the API and BSON tags for the document store.
// 4. Derived values (expense status) are computed by the calculator package,
// not stored as the source of truth.
package models
