// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
)

// FuncChecker adapts a check function. A non-nil error is unhealthy.
type FuncChecker struct {
	name  string
	check func(context.Context) error
}

// NewFuncChecker wraps check under name.
func NewFuncChecker(name string, check func(context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, check: check}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	if err := c.check(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// DirChecker verifies that a directory exists.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for the directory at path.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusUnhealthy, Error: "directory not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected directory, got file", Message: c.path}
	}
	return CheckResult{Status: StatusHealthy}
}

// informational downgrades an unhealthy result to degraded.
type informational struct {
	Checker
}

// Informational marks c as non-critical: its failures degrade the service
// but never make it unready.
func Informational(c Checker) Checker {
	return informational{c}
}

func (c informational) Check(ctx context.Context) CheckResult {
	r := c.Checker.Check(ctx)
	if r.Status == StatusUnhealthy {
		r.Status = StatusDegraded
	}
	return r
}
