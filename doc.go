// Package main provides the entry point of the PrepDesk back office service.
// It resolves the effective roles and permissions of users, keeps the plan
// catalog, and mirrors the subscriptions of the payment provider into local
// entitlements served over a JSON api built on fiber and gorm.
package main
