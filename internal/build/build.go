// Package build runs a variant's configure and make steps.
package build

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Builder compiles a checked-out source tree.
type Builder interface {
	Build(ctx context.Context, dir string, flags []string) error
}

// Toolchain is the autoconf-style ./configure && make builder.
type Toolchain struct {
	// Make is the make binary, "make" when empty.
	Make string
	// Jobs is passed to make as -j when greater than one.
	Jobs int
}

// NewToolchain returns a Toolchain using the make on PATH.
func NewToolchain(jobs int) *Toolchain {
	return &Toolchain{Make: "make", Jobs: jobs}
}

// Build configures dir with flags and runs make.
func (t *Toolchain) Build(ctx context.Context, dir string, flags []string) error {
	if err := run(ctx, dir, "./configure", flags...); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	makeBin := t.Make
	if makeBin == "" {
		makeBin = "make"
	}
	var args []string
	if t.Jobs > 1 {
		args = append(args, fmt.Sprintf("-j%d", t.Jobs))
	}
	if err := run(ctx, dir, makeBin, args...); err != nil {
		return fmt.Errorf("make: %w", err)
	}
	return nil
}

func run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	slog.Debug("running build step", "dir", dir, "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w\nOutput:\n%s", name, strings.Join(args, " "), err, out.String())
	}
	return nil
}
