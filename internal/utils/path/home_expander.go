// Package pathutils resolves user-supplied paths before they reach the
// filesystem.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	homeShortcutConstant       = "~"
	homeShortcutPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites leading home-directory shortcuts into absolute paths.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves a leading "~" or "~/" to the user's home directory. Paths
// naming another user ("~other") and paths whose home lookup fails are
// returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}
	if candidatePath != homeShortcutConstant && !strings.HasPrefix(candidatePath, homeShortcutPrefixConstant) {
		return candidatePath
	}

	homeDirectory, lookupError := expander.homeDirectoryProvider()
	if lookupError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == homeShortcutConstant {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, homeShortcutPrefixConstant))
}
