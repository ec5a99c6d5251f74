// Package fstree walks repository file trees while pruning build and
// dependency directories that never contribute audit signal.
package fstree
