// Package gitrepo offers typed helpers for reading git repository state
// through the shell executor.
package gitrepo
