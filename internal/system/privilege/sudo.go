// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
)

// SudoFileOperations implements FileOperations with coreutils run through a
// sudo-capable command runner.
type SudoFileOperations struct {
	logger        logger.Logger
	runner        command.Runner
	allowedPaths  []string         // Paths that are allowed to be accessed
	allowedRegexp []*regexp.Regexp // Regexp patterns for allowed paths
}

// NewSudoFileOperations creates a new SudoFileOperations instance
func NewSudoFileOperations(
	logger logger.Logger,
	runner command.Runner,
	allowedPaths []string,
) *SudoFileOperations {
	// Compile regexp patterns for path validation
	allowedRegexp := make([]*regexp.Regexp, 0, len(allowedPaths))
	for _, path := range allowedPaths {
		re := regexp.MustCompile("^" + regexp.QuoteMeta(filepath.Clean(path)) + "($|/.*)")
		allowedRegexp = append(allowedRegexp, re)
	}

	return &SudoFileOperations{
		logger:        logger,
		runner:        runner,
		allowedPaths:  allowedPaths,
		allowedRegexp: allowedRegexp,
	}
}

// isPathAllowed checks if a path is allowed to be accessed with sudo
func (s *SudoFileOperations) isPathAllowed(path string) bool {
	// Always check with absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, re := range s.allowedRegexp {
		if re.MatchString(absPath) {
			return true
		}
	}
	return false
}

func (s *SudoFileOperations) denied(path string) error {
	return errors.New(errors.PermissionDenied, "Path not allowed for privileged access").
		WithMetadata("path", path)
}

// ReadFile implements FileOperations.ReadFile
func (s *SudoFileOperations) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if !s.isPathAllowed(path) {
		return nil, s.denied(path)
	}

	res, err := s.runner.Run(ctx, "cat", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "read_file").
			WithMetadata("path", path)
	}

	return []byte(res.Stdout), nil
}

// WriteFile implements FileOperations.WriteFile
func (s *SudoFileOperations) WriteFile(
	ctx context.Context,
	path string,
	data []byte,
	perm fs.FileMode,
) error {
	if !s.isPathAllowed(path) {
		return s.denied(path)
	}

	// Stage the content where the unprivileged process can write it
	tmpFile, err := os.CreateTemp("", "netpanel-sudo-*")
	if err != nil {
		return errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "create_temp_file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "write_temp_file")
	}
	tmpFile.Close()

	if _, err := s.runner.Run(ctx, "mkdir", "-p", filepath.Dir(path)); err != nil {
		return errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "mkdir").
			WithMetadata("path", filepath.Dir(path))
	}

	if _, err := s.runner.Run(ctx, "cp", tmpPath, path); err != nil {
		return errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "write_file").
			WithMetadata("path", path)
	}

	// Set permissions if specified
	if perm != 0 {
		permStr := fmt.Sprintf("%o", perm)
		if _, err := s.runner.Run(ctx, "chmod", permStr, path); err != nil {
			return errors.Wrap(err, errors.OperationFailed).
				WithMetadata("operation", "chmod").
				WithMetadata("path", path).
				WithMetadata("permissions", permStr)
		}
	}

	s.logger.Debug("Wrote privileged file", "path", path, "bytes", len(data))
	return nil
}

// DeleteFile implements FileOperations.DeleteFile
func (s *SudoFileOperations) DeleteFile(ctx context.Context, path string) error {
	if !s.isPathAllowed(path) {
		return s.denied(path)
	}

	if _, err := s.runner.Run(ctx, "rm", "-f", path); err != nil {
		return errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "delete_file").
			WithMetadata("path", path)
	}

	return nil
}

// Exists implements FileOperations.Exists
func (s *SudoFileOperations) Exists(ctx context.Context, path string) (bool, error) {
	if !s.isPathAllowed(path) {
		return false, s.denied(path)
	}

	if _, err := s.runner.Run(ctx, "test", "-e", path); err != nil {
		if command.ExitCode(err) == 1 {
			// File does not exist (exit code 1)
			return false, nil
		}
		return false, errors.Wrap(err, errors.OperationFailed).
			WithMetadata("operation", "check_exists").
			WithMetadata("path", path)
	}

	return true, nil
}
