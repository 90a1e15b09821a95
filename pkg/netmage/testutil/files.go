// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"io/fs"
	"sync"

	"github.com/stratastor/netpanel/pkg/errors"
)

// FakeFiles is an in-memory privilege.FileOperations
type FakeFiles struct {
	mu    sync.Mutex
	Files map[string][]byte
	Perms map[string]fs.FileMode
	// Paths listed here fail every operation with PermissionDenied
	Denied map[string]bool
}

// NewFakeFiles returns an empty file store
func NewFakeFiles() *FakeFiles {
	return &FakeFiles{
		Files:  map[string][]byte{},
		Perms:  map[string]fs.FileMode{},
		Denied: map[string]bool{},
	}
}

func (f *FakeFiles) check(path string) error {
	if f.Denied[path] {
		return errors.New(errors.PermissionDenied, path)
	}
	return nil
}

func (f *FakeFiles) ReadFile(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(path); err != nil {
		return nil, err
	}
	data, ok := f.Files[path]
	if !ok {
		return nil, errors.New(errors.OperationFailed, "no such file: "+path)
	}
	return append([]byte(nil), data...), nil
}

func (f *FakeFiles) WriteFile(_ context.Context, path string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(path); err != nil {
		return err
	}
	f.Files[path] = append([]byte(nil), data...)
	f.Perms[path] = perm
	return nil
}

func (f *FakeFiles) DeleteFile(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(path); err != nil {
		return err
	}
	delete(f.Files, path)
	return nil
}

func (f *FakeFiles) Exists(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(path); err != nil {
		return false, err
	}
	_, ok := f.Files[path]
	return ok, nil
}

// Content returns the stored content of path as a string
func (f *FakeFiles) Content(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.Files[path])
}
