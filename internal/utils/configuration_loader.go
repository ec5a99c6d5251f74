package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationKeyPathSeparatorConstant       = "."
	environmentVariableSeparatorConstant        = "_"
	configurationReadErrorTemplateConstant      = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant = "failed to parse configuration: %w"
	embeddedConfigurationErrorTemplateConstant  = "failed to merge embedded configuration: %w"
)

// ConfigurationLoader resolves structured configuration with a fixed
// precedence: defaults, then embedded data, then a discovered or explicitly
// named configuration file, then environment variables.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	embeddedConfiguration []byte
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader searching the provided paths for a
// configuration file and honoring environment variables under the prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration stores configuration data merged beneath any
// configuration file. The data must match the loader's configuration type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte) {
	if loader == nil {
		return
	}
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
}

// LoadConfiguration populates targetConfiguration from every configured
// source. An explicit configurationFilePath overrides file discovery; a
// missing discovered file is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	configurationState := viper.New()
	configurationState.SetConfigName(loader.configurationName)
	configurationState.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		configurationState.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		if mergeError := configurationState.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationErrorTemplateConstant, mergeError)
		}
	}

	for _, searchPath := range loader.searchPaths {
		configurationState.AddConfigPath(searchPath)
	}
	if len(configurationFilePath) > 0 {
		configurationState.SetConfigFile(configurationFilePath)
	}

	configurationState.SetEnvPrefix(loader.environmentPrefix)
	configurationState.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyPathSeparatorConstant, environmentVariableSeparatorConstant))
	configurationState.AutomaticEnv()

	if readError := configurationState.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	if unmarshalError := configurationState.Unmarshal(targetConfiguration); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: configurationState.ConfigFileUsed()}, nil
}
