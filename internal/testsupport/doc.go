// Package testsupport builds configs, fixtures, and seeded profile stores for
// package tests.
package testsupport
