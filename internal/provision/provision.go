// Package provision checks out and builds every variant before it is measured.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zbench/internal/build"
	"zbench/internal/git"
	"zbench/internal/metrics"
	"zbench/internal/registry"
)

// Error names the variant and the step that failed.
type Error struct {
	Variant string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provision %s: %s: %v", e.Variant, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Provisioner ensures a variant is checked out at its revision and built.
type Provisioner struct {
	git     git.IClient
	builder build.Builder
	metrics *metrics.Metrics
	workDir string
	force   bool
}

// New returns a Provisioner keeping checkouts under workDir. With force set,
// existing builds are rebuilt.
func New(g git.IClient, b build.Builder, m *metrics.Metrics, workDir string, force bool) *Provisioner {
	return &Provisioner{git: g, builder: b, metrics: m, workDir: workDir, force: force}
}

// EnsureBuilt returns v with its build directory and resolved commit hash attached.
func (p *Provisioner) EnsureBuilt(ctx context.Context, v registry.Variant) (registry.Variant, error) {
	v = v.WithDir(p.workDir)

	if !p.force && isFile(v.ExecutablePath()) {
		slog.Info("using existing build", "variant", v.Name, "path", v.ExecutablePath())
		return p.resolve(v)
	}

	if err := p.checkout(ctx, v, true); err != nil {
		return v, err
	}

	slog.Info("building", "variant", v.Name, "flags", v.Flags)
	err := p.builder.Build(ctx, v.Dir, v.Flags)
	p.metrics.ProvisionStep(v.Name, "build", err)
	if err != nil {
		return v, &Error{Variant: v.Name, Op: "build", Err: err}
	}
	if !isFile(v.ExecutablePath()) {
		return v, &Error{Variant: v.Name, Op: "build", Err: fmt.Errorf("%s was not produced", v.ExecutablePath())}
	}
	return p.resolve(v)
}

// EnsureAll provisions variants in order and stops at the first failure.
func (p *Provisioner) EnsureAll(ctx context.Context, variants []registry.Variant) ([]registry.Variant, error) {
	built := make([]registry.Variant, 0, len(variants))
	for _, v := range variants {
		b, err := p.EnsureBuilt(ctx, v)
		if err != nil {
			return nil, err
		}
		built = append(built, b)
	}
	return built, nil
}

// checkout clones a missing working directory once, then resets it to the
// requested revision.
func (p *Provisioner) checkout(ctx context.Context, v registry.Variant, mayClone bool) error {
	if _, err := os.Stat(v.Dir); os.IsNotExist(err) {
		if !mayClone {
			return &Error{Variant: v.Name, Op: "clone", Err: fmt.Errorf("%s is missing after clone", v.Dir)}
		}
		if err := os.MkdirAll(filepath.Dir(v.Dir), 0755); err != nil {
			return &Error{Variant: v.Name, Op: "clone", Err: err}
		}
		slog.Info("cloning", "variant", v.Name, "url", v.URL)
		err := p.git.Clone(ctx, v.URL, v.Dir)
		p.metrics.ProvisionStep(v.Name, "clone", err)
		if err != nil {
			return &Error{Variant: v.Name, Op: "clone", Err: err}
		}
		return p.checkout(ctx, v, false)
	}

	slog.Info("checking out", "variant", v.Name, "revision", v.Revision)
	err := p.git.Fetch(ctx, v.Dir)
	p.metrics.ProvisionStep(v.Name, "fetch", err)
	if err != nil {
		return &Error{Variant: v.Name, Op: "fetch", Err: err}
	}
	err = p.git.ResetHard(ctx, v.Dir, v.Revision)
	p.metrics.ProvisionStep(v.Name, "reset", err)
	if err != nil {
		return &Error{Variant: v.Name, Op: "reset", Err: err}
	}
	return nil
}

func (p *Provisioner) resolve(v registry.Variant) (registry.Variant, error) {
	hash, err := p.git.HeadHash(v.Dir)
	if err != nil {
		return v, &Error{Variant: v.Name, Op: "resolve revision", Err: err}
	}
	v.Resolved = hash
	slog.Debug("resolved", "variant", v.Name, "revision", v.Revision, "hash", hash)
	return v, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
