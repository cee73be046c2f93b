package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/logger"
	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

// Spec describes one command dispatched through the boundary. Every
// destructive operation in the installer flows through a Spec so that
// dry-run, logging, and timeout behavior stay uniform.
type Spec struct {
	Command     string
	Description string

	CaptureOutput bool
	CheckSuccess  bool
	Timeout       time.Duration
	WorkDir       string
	Env           map[string]string
	Stdin         string
}

// Result captures the outcome of a boundary command.
type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor is the single point where the installer touches the operating
// system. With DryRun set it simulates every command as a synthetic
// success and performs no system calls.
type Executor struct {
	DryRun bool

	log *logger.Logger
}

// New creates an Executor. A nil logger is accepted and silences logging.
func New(dryRun bool, log *logger.Logger) *Executor {
	return &Executor{DryRun: dryRun, log: log}
}

// Run executes the spec and returns its result. When CheckSuccess is set,
// a non-zero exit or an elapsed timeout returns a *errors.CommandError;
// otherwise failures are reported through Result only. Timeouts are never
// retried here; retry policy belongs to callers.
func (e *Executor) Run(ctx context.Context, spec Spec) (*Result, error) {
	fields := map[string]any{"command": spec.Command, "description": spec.Description}
	log := e.log.WithFields(fields)

	if e.DryRun {
		log.Info("dry-run: would execute")
		return &Result{
			Success: true,
			Stdout:  "[dry-run] command simulated",
		}, nil
	}

	if strings.TrimSpace(spec.Command) == "" {
		return nil, fmt.Errorf("empty command for %q", spec.Description)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	// Commands are shell lines, not argv lists: phases rely on globs,
	// quoting, and redirections.
	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", spec.Command)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = buildEnv(spec.Env)
	}
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	if spec.CaptureOutput {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	log.Debug("executing")
	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		log.Error(runCtx.Err(), "command timed out")
		timeoutErr := sliterrors.NewCommandTimeoutError(spec.Description, spec.Command)
		if spec.CheckSuccess {
			return nil, timeoutErr
		}
		return &Result{ExitCode: -1, Stderr: stderr.String(), Duration: duration}, nil
	}

	res := &Result{
		Success:  runErr == nil,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Stderr = runErr.Error()
		}
	}

	if res.Success {
		log.WithFields(map[string]any{"duration": duration.String()}).Info("command succeeded")
	} else {
		log.WithFields(map[string]any{"exit_code": res.ExitCode, "stderr": strings.TrimSpace(res.Stderr)}).
			Error(runErr, "command failed")
		if spec.CheckSuccess {
			return nil, sliterrors.NewCommandError(spec.Description, spec.Command, res.ExitCode, res.Stdout, res.Stderr)
		}
	}

	return res, nil
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
