package audit

import (
	"github.com/printshop-os/repoaudit/internal/checks/layout"
	"github.com/printshop-os/repoaudit/internal/fstree"
)

const (
	defaultMainBranchNameConstant       = "main"
	defaultRemoteNameConstant           = "origin"
	defaultStaleThresholdDaysConstant   = 30
	defaultWarningSizeBytesConstant     = 1048576
	defaultCriticalSizeBytesConstant    = 10485760
	defaultServiceDirectoryFileConstant = "SERVICES.md"

	mainBranchConfigurationKeyConstant           = "main_branch"
	remoteNameConfigurationKeyConstant           = "remote_name"
	staleThresholdConfigurationKeyConstant       = "stale_branch_threshold_days"
	warningSizeConfigurationKeyConstant          = "large_file_warning_bytes"
	criticalSizeConfigurationKeyConstant         = "large_file_critical_bytes"
	servicesRootConfigurationKeyConstant         = "layout.services_root"
	frontendRootConfigurationKeyConstant         = "layout.frontend_root"
	cmsRootConfigurationKeyConstant              = "layout.cms_root"
	cmsServiceNameConfigurationKeyConstant       = "layout.cms_service_name"
	docsRootConfigurationKeyConstant             = "layout.docs_root"
	scriptsRootConfigurationKeyConstant          = "layout.scripts_root"
	libRootConfigurationKeyConstant              = "layout.lib_root"
	integrationTestsRootConfigurationKeyConstant = "layout.integration_tests_root"
	serviceDirectoryConfigurationKeyConstant     = "service_directory_file"
	excludedDirectoriesConfigurationKeyConstant  = "excluded_directories"
	markerExtensionsConfigurationKeyConstant     = "marker_extensions"
)

// defaultMarkerFileExtensions is the extension allowlist the comment-marker
// scanner honors unless configuration overrides it.
var defaultMarkerFileExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py",
	".sh", ".sql", ".yml", ".yaml", ".toml", ".css", ".scss",
}

// LayoutConfiguration names the monorepo root directories.
type LayoutConfiguration struct {
	ServicesRoot         string `mapstructure:"services_root"`
	FrontendRoot         string `mapstructure:"frontend_root"`
	CMSRoot              string `mapstructure:"cms_root"`
	CMSServiceName       string `mapstructure:"cms_service_name"`
	DocsRoot             string `mapstructure:"docs_root"`
	ScriptsRoot          string `mapstructure:"scripts_root"`
	LibRoot              string `mapstructure:"lib_root"`
	IntegrationTestsRoot string `mapstructure:"integration_tests_root"`
}

// Configuration carries every audit policy knob loaded from configuration.
type Configuration struct {
	MainBranch               string              `mapstructure:"main_branch"`
	RemoteName               string              `mapstructure:"remote_name"`
	StaleBranchThresholdDays int                 `mapstructure:"stale_branch_threshold_days"`
	LargeFileWarningBytes    int64               `mapstructure:"large_file_warning_bytes"`
	LargeFileCriticalBytes   int64               `mapstructure:"large_file_critical_bytes"`
	Layout                   LayoutConfiguration `mapstructure:"layout"`
	ServiceDirectoryFile     string              `mapstructure:"service_directory_file"`
	ExcludedDirectories      []string            `mapstructure:"excluded_directories"`
	MarkerExtensions         []string            `mapstructure:"marker_extensions"`
}

// DefaultConfigurationValues returns the configuration defaults keyed with the
// provided prefix, suitable for registration with the configuration loader.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaultLayout := layout.DefaultRoots()
	return map[string]any{
		keyPrefix + mainBranchConfigurationKeyConstant:           defaultMainBranchNameConstant,
		keyPrefix + remoteNameConfigurationKeyConstant:           defaultRemoteNameConstant,
		keyPrefix + staleThresholdConfigurationKeyConstant:       defaultStaleThresholdDaysConstant,
		keyPrefix + warningSizeConfigurationKeyConstant:          defaultWarningSizeBytesConstant,
		keyPrefix + criticalSizeConfigurationKeyConstant:         defaultCriticalSizeBytesConstant,
		keyPrefix + servicesRootConfigurationKeyConstant:         defaultLayout.ServicesRoot,
		keyPrefix + frontendRootConfigurationKeyConstant:         defaultLayout.FrontendRoot,
		keyPrefix + cmsRootConfigurationKeyConstant:              defaultLayout.CMSRoot,
		keyPrefix + cmsServiceNameConfigurationKeyConstant:       defaultLayout.CMSServiceName,
		keyPrefix + docsRootConfigurationKeyConstant:             defaultLayout.DocsRoot,
		keyPrefix + scriptsRootConfigurationKeyConstant:          defaultLayout.ScriptsRoot,
		keyPrefix + libRootConfigurationKeyConstant:              defaultLayout.LibRoot,
		keyPrefix + integrationTestsRootConfigurationKeyConstant: defaultLayout.IntegrationTestsRoot,
		keyPrefix + serviceDirectoryConfigurationKeyConstant:     defaultServiceDirectoryFileConstant,
		keyPrefix + excludedDirectoriesConfigurationKeyConstant:  append([]string(nil), fstree.DefaultExcludedDirectoryNames...),
		keyPrefix + markerExtensionsConfigurationKeyConstant:     append([]string(nil), defaultMarkerFileExtensions...),
	}
}

// LayoutRoots converts the configured layout into the mapping rule's form.
func (configuration Configuration) LayoutRoots() layout.Roots {
	return layout.Roots{
		ServicesRoot:         configuration.Layout.ServicesRoot,
		FrontendRoot:         configuration.Layout.FrontendRoot,
		CMSRoot:              configuration.Layout.CMSRoot,
		CMSServiceName:       configuration.Layout.CMSServiceName,
		DocsRoot:             configuration.Layout.DocsRoot,
		ScriptsRoot:          configuration.Layout.ScriptsRoot,
		LibRoot:              configuration.Layout.LibRoot,
		IntegrationTestsRoot: configuration.Layout.IntegrationTestsRoot,
	}
}
