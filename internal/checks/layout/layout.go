// Package layout maps repository paths onto owning services using the
// monorepo root conventions shared by the tests and docs checks.
package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	frontendServiceNameConstant    = "frontend"
	libraryServicePrefixConstant   = "lib/"
	fallbackServiceNameConstant    = "other"
	pathComponentSeparatorConstant = "/"
)

// Roots names the directories the service-mapping rule recognizes.
// All values are slash-separated paths relative to the repository root.
type Roots struct {
	ServicesRoot         string
	FrontendRoot         string
	CMSRoot              string
	CMSServiceName       string
	DocsRoot             string
	ScriptsRoot          string
	LibRoot              string
	IntegrationTestsRoot string
}

// DefaultRoots returns the audited monorepo's conventional layout.
func DefaultRoots() Roots {
	return Roots{
		ServicesRoot:         "services",
		FrontendRoot:         "frontend",
		CMSRoot:              "cms",
		CMSServiceName:       "cms",
		DocsRoot:             "docs",
		ScriptsRoot:          "scripts",
		LibRoot:              "lib",
		IntegrationTestsRoot: "integration-tests",
	}
}

// ServiceForPath maps a repository-relative file path onto its owning service.
func (roots Roots) ServiceForPath(relativePath string) string {
	switch {
	case pathUnderRoot(relativePath, roots.ServicesRoot):
		childName := firstComponentBelow(relativePath, roots.ServicesRoot)
		if len(childName) > 0 {
			return childName
		}
	case pathUnderRoot(relativePath, roots.FrontendRoot):
		return frontendServiceNameConstant
	case pathUnderRoot(relativePath, roots.CMSRoot):
		return roots.CMSServiceName
	case pathUnderRoot(relativePath, roots.LibRoot):
		childName := firstComponentBelow(relativePath, roots.LibRoot)
		if len(childName) > 0 {
			return libraryServicePrefixConstant + childName
		}
	case pathUnderRoot(relativePath, roots.IntegrationTestsRoot):
		return roots.IntegrationTestsRoot
	}
	return fallbackServiceNameConstant
}

// KnownServices enumerates every service the repository layout declares on disk.
func (roots Roots) KnownServices(repositoryPath string) []string {
	var knownServices []string

	for _, childName := range directoryChildren(filepath.Join(repositoryPath, filepath.FromSlash(roots.ServicesRoot))) {
		knownServices = append(knownServices, childName)
	}
	if directoryExists(filepath.Join(repositoryPath, filepath.FromSlash(roots.FrontendRoot))) {
		knownServices = append(knownServices, frontendServiceNameConstant)
	}
	if directoryExists(filepath.Join(repositoryPath, filepath.FromSlash(roots.CMSRoot))) {
		knownServices = append(knownServices, roots.CMSServiceName)
	}
	for _, childName := range directoryChildren(filepath.Join(repositoryPath, filepath.FromSlash(roots.LibRoot))) {
		knownServices = append(knownServices, libraryServicePrefixConstant+childName)
	}
	if directoryExists(filepath.Join(repositoryPath, filepath.FromSlash(roots.IntegrationTestsRoot))) {
		knownServices = append(knownServices, roots.IntegrationTestsRoot)
	}

	sort.Strings(knownServices)
	return knownServices
}

// ServiceDirectories lists the repository-relative directories expected to carry documentation.
func (roots Roots) ServiceDirectories(repositoryPath string) []string {
	var documentedDirectories []string

	for _, childName := range directoryChildren(filepath.Join(repositoryPath, filepath.FromSlash(roots.ServicesRoot))) {
		documentedDirectories = append(documentedDirectories, roots.ServicesRoot+pathComponentSeparatorConstant+childName)
	}
	for _, rootPath := range []string{roots.FrontendRoot, roots.CMSRoot, roots.DocsRoot, roots.ScriptsRoot, roots.LibRoot} {
		if directoryExists(filepath.Join(repositoryPath, filepath.FromSlash(rootPath))) {
			documentedDirectories = append(documentedDirectories, rootPath)
		}
	}

	sort.Strings(documentedDirectories)
	return documentedDirectories
}

func pathUnderRoot(relativePath string, rootPath string) bool {
	if len(rootPath) == 0 {
		return false
	}
	return relativePath == rootPath || strings.HasPrefix(relativePath, rootPath+pathComponentSeparatorConstant)
}

func firstComponentBelow(relativePath string, rootPath string) string {
	remainder := strings.TrimPrefix(relativePath, rootPath+pathComponentSeparatorConstant)
	if remainder == relativePath {
		return ""
	}
	components := strings.SplitN(remainder, pathComponentSeparatorConstant, 2)
	if len(components) < 2 {
		// A file directly under the root belongs to no child service.
		return ""
	}
	return components[0]
}

func directoryExists(absolutePath string) bool {
	pathInfo, statError := os.Stat(absolutePath)
	return statError == nil && pathInfo.IsDir()
}

func directoryChildren(absolutePath string) []string {
	directoryEntries, readError := os.ReadDir(absolutePath)
	if readError != nil {
		return nil
	}

	var childNames []string
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			childNames = append(childNames, directoryEntry.Name())
		}
	}
	sort.Strings(childNames)
	return childNames
}
