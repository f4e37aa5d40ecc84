// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// Outcome classifies how a scorer subprocess ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "failure"
	}
}

// Invocation is the single result of running the scorer command.
type Invocation struct {
	Outcome Outcome
	Stdout  []byte
	Stderr  []byte

	// Err is set for OutcomeTimeout and OutcomeFailure.
	Err error
}

// executor abstracts command execution for testing.
type executor interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) Invocation
}

// waitDelay bounds how long Run waits for output pipes after the process
// is killed.
const waitDelay = 2 * time.Second

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdin []byte) Invocation {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	inv := Invocation{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Err: err}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		inv.Outcome = OutcomeTimeout
		inv.Err = ctx.Err()
	case ctx.Err() != nil:
		inv.Outcome = OutcomeFailure
		inv.Err = ctx.Err()
	case err != nil:
		inv.Outcome = OutcomeFailure
	default:
		inv.Outcome = OutcomeSuccess
	}
	return inv
}

// ProcessScorer runs the model as a local command. The request JSON is
// written to stdin and the response is read from stdout.
type ProcessScorer struct {
	command string
	args    []string
	exec    executor
}

var _ Scorer = (*ProcessScorer)(nil)

// NewProcess returns a scorer running cfg.Command with cfg.Args.
func NewProcess(cfg types.ScorerConfig) *ProcessScorer {
	return newProcess(cfg, osExecutor{})
}

func newProcess(cfg types.ScorerConfig, exec executor) *ProcessScorer {
	return &ProcessScorer{command: cfg.Command, args: cfg.Args, exec: exec}
}

func (p *ProcessScorer) Name() string { return string(types.TransportProcess) }

// Score runs the command once and maps its outcome onto the sentinels.
func (p *ProcessScorer) Score(ctx context.Context, technology string, features types.FeatureSet) (Result, error) {
	body, err := EncodeRequest(technology, features)
	if err != nil {
		return Result{}, err
	}

	inv := p.exec.Run(ctx, p.command, p.args, body)
	switch inv.Outcome {
	case OutcomeSuccess:
		return DecodeResponse(inv.Stdout)
	case OutcomeTimeout:
		return Result{}, fmt.Errorf("%w: %s: %w", ErrTimeout, p.command, inv.Err)
	default:
		if msg := strings.TrimSpace(string(inv.Stderr)); msg != "" {
			return Result{}, fmt.Errorf("%w: %s: %w: %s", ErrUnavailable, p.command, inv.Err, lastLine(msg))
		}
		return Result{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, p.command, inv.Err)
	}
}

// lastLine keeps error messages to the final line of a traceback.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
