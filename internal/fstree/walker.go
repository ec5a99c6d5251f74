package fstree

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExcludedDirectoryNames lists build and dependency directories pruned from every walk.
var DefaultExcludedDirectoryNames = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	".next",
	"coverage",
	"__pycache__",
	".venv",
	"venv",
	".cache",
	".turbo",
}

// FileVisitor receives every retained regular file with its slash-separated path relative to the walk root.
type FileVisitor func(relativePath string, directoryEntry fs.DirEntry) error

// DirectoryVisitor receives every pruned directory with its slash-separated path relative to the walk root.
type DirectoryVisitor func(relativePath string, directoryName string) error

// Walker traverses a file tree while pruning a configured set of directory names.
type Walker struct {
	excludedDirectoryNames map[string]struct{}
}

// NewWalker constructs a Walker pruning the provided directory names, or the defaults when empty.
func NewWalker(excludedDirectoryNames []string) *Walker {
	if len(excludedDirectoryNames) == 0 {
		excludedDirectoryNames = DefaultExcludedDirectoryNames
	}

	exclusionSet := make(map[string]struct{}, len(excludedDirectoryNames))
	for _, directoryName := range excludedDirectoryNames {
		exclusionSet[directoryName] = struct{}{}
	}

	return &Walker{excludedDirectoryNames: exclusionSet}
}

// IsExcluded reports whether the provided directory name belongs to the exclusion set.
func (walker *Walker) IsExcluded(directoryName string) bool {
	_, excluded := walker.excludedDirectoryNames[directoryName]
	return excluded
}

// Walk visits every retained regular file under rootPath.
func (walker *Walker) Walk(executionContext context.Context, rootPath string, visitFile FileVisitor) error {
	return walker.WalkObserved(executionContext, rootPath, visitFile, nil)
}

// WalkObserved visits every retained regular file under rootPath and reports
// each pruned directory to visitPruned when the visitor is provided.
func (walker *Walker) WalkObserved(executionContext context.Context, rootPath string, visitFile FileVisitor, visitPruned DirectoryVisitor) error {
	return filepath.WalkDir(rootPath, func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if walkError != nil {
			return nil
		}

		relativePath, relativeError := filepath.Rel(rootPath, currentPath)
		if relativeError != nil {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if directoryEntry.IsDir() {
			if currentPath == rootPath {
				return nil
			}
			if walker.IsExcluded(directoryEntry.Name()) {
				if visitPruned != nil {
					if prunedError := visitPruned(relativePath, directoryEntry.Name()); prunedError != nil {
						return prunedError
					}
				}
				return fs.SkipDir
			}
			return nil
		}

		if !directoryEntry.Type().IsRegular() {
			return nil
		}

		return visitFile(relativePath, directoryEntry)
	})
}

// BaseName returns the final path component of a slash-separated relative path.
func BaseName(relativePath string) string {
	if separatorIndex := strings.LastIndex(relativePath, "/"); separatorIndex >= 0 {
		return relativePath[separatorIndex+1:]
	}
	return relativePath
}
