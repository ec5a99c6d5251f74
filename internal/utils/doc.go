// Package utils exposes reusable helpers consumed across the audit CLI.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging.
package utils
