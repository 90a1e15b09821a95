// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/command"
)

// OperationsFactory creates FileOperations instances
type OperationsFactory struct {
	logger logger.Logger
	runner command.Runner
	config *Config
}

// NewOperationsFactory creates a new OperationsFactory
func NewOperationsFactory(
	logger logger.Logger,
	runner command.Runner,
	config *Config,
) *OperationsFactory {
	if config == nil {
		config = DefaultConfig()
	}
	return &OperationsFactory{
		logger: logger,
		runner: runner,
		config: config,
	}
}

// Create returns a FileOperations instance
func (f *OperationsFactory) Create() FileOperations {
	return NewSudoFileOperations(f.logger, f.runner, f.config.AllowedPaths)
}
