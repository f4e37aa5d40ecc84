// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"context"
	"fmt"

	"github.com/pdiddy/trl-engine/pkg/types"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// containerRuntime describes one container CLI. Docker and Podman differ
// only in binary name and the subcommand that checks for a local image.
type containerRuntime struct {
	bin           string
	imageCheckCmd []string
}

var runtimes = map[string]containerRuntime{
	binDocker: {bin: binDocker, imageCheckCmd: []string{"image", "inspect"}},
	binPodman: {bin: binPodman, imageCheckCmd: []string{"image", "exists"}},
}

// ContainerScorer runs the model packaged as an image. Each Score starts a
// fresh container with stdin attached, so the wire contract is the same as
// the process transport.
type ContainerScorer struct {
	proc    *ProcessScorer
	runtime string
	image   string
}

var _ Scorer = (*ContainerScorer)(nil)

// NewContainer picks a runtime and verifies cfg.Image is present locally.
func NewContainer(ctx context.Context, cfg types.ScorerConfig) (*ContainerScorer, error) {
	return newContainer(ctx, cfg, osExecutor{})
}

func newContainer(ctx context.Context, cfg types.ScorerConfig, exec executor) (*ContainerScorer, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("container scorer requires an image")
	}

	rt, err := detectRuntime(ctx, cfg.Runtime, exec)
	if err != nil {
		return nil, err
	}

	check := append(append([]string{}, rt.imageCheckCmd...), cfg.Image)
	if inv := exec.Run(ctx, rt.bin, check, nil); inv.Outcome != OutcomeSuccess {
		return nil, fmt.Errorf("%w: image %s not found in %s: %w", ErrUnavailable, cfg.Image, rt.bin, inv.Err)
	}

	args := append([]string{"run", "--rm", "-i", cfg.Image}, cfg.Args...)
	return &ContainerScorer{
		proc:    &ProcessScorer{command: rt.bin, args: args, exec: exec},
		runtime: rt.bin,
		image:   cfg.Image,
	}, nil
}

// detectRuntime returns the named runtime, or tries docker then podman when
// name is empty. A runtime counts as available when its info command
// succeeds.
func detectRuntime(ctx context.Context, name string, exec executor) (containerRuntime, error) {
	candidates := []string{binDocker, binPodman}
	if name != "" {
		if _, ok := runtimes[name]; !ok {
			return containerRuntime{}, fmt.Errorf("unknown container runtime %q: use docker or podman", name)
		}
		candidates = []string{name}
	}

	for _, c := range candidates {
		if exec.Run(ctx, c, []string{"info"}, nil).Outcome == OutcomeSuccess {
			return runtimes[c], nil
		}
	}
	return containerRuntime{}, fmt.Errorf("%w: no container runtime available: tried %v", ErrUnavailable, candidates)
}

func (c *ContainerScorer) Name() string { return string(types.TransportContainer) }

// Runtime reports the container CLI in use.
func (c *ContainerScorer) Runtime() string { return c.runtime }

func (c *ContainerScorer) Score(ctx context.Context, technology string, features types.FeatureSet) (Result, error) {
	return c.proc.Score(ctx, technology, features)
}
