// Package render transforms the uniform report model into markdown, JSON,
// and CSV documents. Renderers share no state with each other.
package render
