// Package execshell wraps git subprocess execution behind typed commands,
// structured logging, and observer notifications.
package execshell
