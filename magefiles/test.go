// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// featureTest is the test function that runs the godog scenarios.
const featureTest = "TestFeatures"

// Test groups test targets (all, unit, features, cover).
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs every test except the feature scenarios.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-skip", featureTest, "./...")
}

// Features runs only the godog feature scenarios.
func (Test) Features() error {
	return sh.RunV(binGo, "test", "-v", "-run", featureTest, "./internal/store/...")
}

// Cover runs every test and writes a coverage profile to bin/coverage.out.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
