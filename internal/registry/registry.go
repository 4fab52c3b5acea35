// Package registry publishes packages to an npm-compatible registry through
// the npm CLI.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariel-frischer/changeset/internal/runner"
)

// Options are the per-publish registry settings.
type Options struct {
	// URL overrides the configured registry when set.
	URL string
	// Access is "public" or "restricted"; empty leaves npm's default.
	Access string
	// Tag is the dist-tag, e.g. "latest" or "next".
	Tag string
}

// Args returns the npm publish argument list for opts.
func (o Options) Args() []string {
	args := []string{"publish"}
	if o.URL != "" {
		args = append(args, "--registry", o.URL)
	}
	if o.Access != "" {
		args = append(args, "--access", o.Access)
	}
	if o.Tag != "" {
		args = append(args, "--tag", o.Tag)
	}
	return args
}

// NPM drives the npm CLI in a package directory.
type NPM struct {
	run runner.Runner
	dir string
}

// New returns an NPM client for the package in dir.
func New(r runner.Runner, dir string) *NPM {
	return &NPM{run: r, dir: dir}
}

// Available reports whether the npm executable is on PATH.
func Available() bool {
	return runner.Available("npm")
}

// Publish runs npm publish.
func (n *NPM) Publish(ctx context.Context, opts Options) error {
	if _, err := n.run.Run(ctx, n.dir, "npm", opts.Args()...); err != nil {
		return fmt.Errorf("npm publish: %w", err)
	}
	return nil
}

// WhoAmI returns the authenticated registry user.
func (n *NPM) WhoAmI(ctx context.Context, registryURL string) (string, error) {
	args := []string{"whoami"}
	if registryURL != "" {
		args = append(args, "--registry", registryURL)
	}
	res, err := n.run.Run(ctx, n.dir, "npm", args...)
	if err != nil {
		return "", fmt.Errorf("npm whoami: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}
