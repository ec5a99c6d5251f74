// Package report defines the uniform result model shared by every check
// analyzer and consumed by every output renderer.
package report
