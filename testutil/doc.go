// Package testutil provides seeded randomness and synthetic descriptor
// generators shared by the package tests.
package testutil
