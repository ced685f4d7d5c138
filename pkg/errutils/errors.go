// Package errutils defines the error taxonomy of the repository engine.
// It provides sentinel errors for every failure class the ingestion path can
// produce, wrapping helpers that keep the sentinel reachable through errors.Is,
// and small constructors that attach the offending name or path.
//
// The ingestion taxonomy:
// - ErrAlreadyExists: placement collision, non-fatal for the caller
// - ErrParseFailure: filename does not match the identity grammar
// - ErrNeglectedByAllIndexers: no indexer of the index wants the artifact
// - ErrExternalTool: a subprocess exited non-zero or misbehaved
// - ErrIncrementalRebuild: an incremental metadata update failed (recovered internally)
package errutils

import (
	"fmt"
)

var (
	// Ingestion errors.
	ErrAlreadyExists          = fmt.Errorf("destination already exists")
	ErrParseFailure           = fmt.Errorf("filename parsing failed")
	ErrNeglectedByAllIndexers = fmt.Errorf("artifact neglected by all indexers")
	ErrExternalTool           = fmt.Errorf("external tool failed")
	ErrIncrementalRebuild     = fmt.Errorf("incremental metadata update failed")
	ErrRejectedByHook         = fmt.Errorf("artifact rejected by hook")

	// Repository layout errors.
	ErrIndexNotFound     = fmt.Errorf("index not found")
	ErrIndexExists       = fmt.Errorf("index already exists")
	ErrIndexerNotFound   = fmt.Errorf("indexer not found")
	ErrOutsideRepository = fmt.Errorf("path is outside the packages directory")
	ErrNotAFile          = fmt.Errorf("not a regular file")

	// Signing errors.
	ErrKeyMissing         = fmt.Errorf("signing key is not available")
	ErrUnexpectedPrompt   = fmt.Errorf("unexpected interactive prompt")
	ErrInteractionTimeout = fmt.Errorf("interactive command timed out")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")

	// Config errors are related to configuration file operations and validation.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")

	ErrBaseDirectoryEmpty  = fmt.Errorf("base directory cannot be empty")
	ErrEmptyIndexName      = fmt.Errorf("index name cannot be empty")
	ErrInvalidIndexName    = fmt.Errorf("invalid index name")
	ErrInvalidLogLevel     = fmt.Errorf("invalid log level")
	ErrInvalidKeyAlgorithm = fmt.Errorf("invalid key algorithm")
	ErrConcurrencyInvalid  = fmt.Errorf("concurrency must be at least 1")
	ErrTimeoutNegative     = fmt.Errorf("timeout cannot be negative")
	ErrUnknownConfigKey    = fmt.Errorf("unknown configuration key")
)

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errutils.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrIndexNotFoundWithName creates an error for an index missing from the registry.
func ErrIndexNotFoundWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
}

// ErrIndexExistsWithName creates an error for a duplicate index.
func ErrIndexExistsWithName(name string) error {
	return fmt.Errorf("index '%s': %w", name, ErrIndexExists)
}

// ErrIndexerNotFoundWithType creates an error for an unknown indexer type within an index.
func ErrIndexerNotFoundWithType(index, indexerType string) error {
	return fmt.Errorf("%w: %s/%s", ErrIndexerNotFound, index, indexerType)
}

// ErrNeglectedWithName attaches the artifact filename to ErrNeglectedByAllIndexers.
func ErrNeglectedWithName(filename string) error {
	return fmt.Errorf("%w: %s", ErrNeglectedByAllIndexers, filename)
}

// ErrAlreadyExistsWithPath attaches the colliding destination to ErrAlreadyExists.
func ErrAlreadyExistsWithPath(path string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
}

// ErrOutsideRepositoryWithPath attaches the rejected path to ErrOutsideRepository.
func ErrOutsideRepositoryWithPath(path string) error {
	return fmt.Errorf("%w: %s", ErrOutsideRepository, path)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidIndexNameWithDetails reports an index name that cannot be used as a directory name.
func ErrInvalidIndexNameWithDetails(name string) error {
	return fmt.Errorf("%w: '%s'", ErrInvalidIndexName, name)
}

// ErrInvalidKeyAlgorithmWithDetails reports an unsupported key algorithm.
func ErrInvalidKeyAlgorithmWithDetails(algorithm string) error {
	return fmt.Errorf("%w: '%s', must be one of: rsa, ed25519", ErrInvalidKeyAlgorithm, algorithm)
}
