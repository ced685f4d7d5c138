package errutils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			msg:      "additional context",
			expected: "additional context: original error",
		},
		{
			name:     "wrap sentinel",
			err:      ErrExternalTool,
			msg:      "createrepo",
			expected: "createrepo: external tool failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			assert.EqualError(t, result, tt.expected)
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrParseFailure, "failed to parse %s in %d attempts", "file.txt", 3)
	assert.EqualError(t, err, "failed to parse file.txt in 3 attempts: filename parsing failed")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.NoError(t, Wrapf(nil, "formatted: %s", "test"))
}

func TestHelpersKeepSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"index not found", ErrIndexNotFoundWithName("main-stable"), ErrIndexNotFound, "main-stable"},
		{"index exists", ErrIndexExistsWithName("main-stable"), ErrIndexExists, "main-stable"},
		{"indexer not found", ErrIndexerNotFoundWithType("main-stable", "apt"), ErrIndexerNotFound, "main-stable/apt"},
		{"neglected", ErrNeglectedWithName("foo.txt"), ErrNeglectedByAllIndexers, "foo.txt"},
		{"already exists", ErrAlreadyExistsWithPath("/a/b.rpm"), ErrAlreadyExists, "/a/b.rpm"},
		{"outside", ErrOutsideRepositoryWithPath("/etc/passwd"), ErrOutsideRepository, "/etc/passwd"},
		{"log level", ErrInvalidLogLevelWithDetails("loud"), ErrInvalidLogLevel, "loud"},
		{"index name", ErrInvalidIndexNameWithDetails("a/b"), ErrInvalidIndexName, "a/b"},
		{"key algorithm", ErrInvalidKeyAlgorithmWithDetails("dsa"), ErrInvalidKeyAlgorithm, "dsa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}
