package scripts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"github.com/arthur-debert/mum/pkg/config"
	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result is the outcome of one script run
type Result struct {
	ExitCode int
	// Output is stdout and stderr combined.
	Output string
}

// Runtime runs a single script file in dir. Implementations never change
// the process working directory.
type Runtime interface {
	Run(ctx context.Context, script, dir string, env []string) (Result, error)
}

// NewRuntime returns the runtime registered under name
func NewRuntime(name string, fs afero.Fs) (Runtime, error) {
	switch name {
	case "", config.RuntimeExec:
		return NewExecRuntime(), nil
	case config.RuntimeVirtual:
		return NewVirtualRuntime(fs), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown script runtime %q", name)
	}
}

// ShellBinary runs scripts that carry no interpreter line
const ShellBinary = "sh"

// ExecRuntime executes scripts as host processes
type ExecRuntime struct {
	logger zerolog.Logger
}

// NewExecRuntime creates an ExecRuntime
func NewExecRuntime() *ExecRuntime {
	return &ExecRuntime{logger: logging.GetLogger("scripts.exec")}
}

// Run executes script directly; its shebang selects the interpreter. A script
// without one is handed to sh, as a shell would do.
func (r *ExecRuntime) Run(ctx context.Context, script, dir string, env []string) (Result, error) {
	out, err := r.run(ctx, dir, env, script)
	if errors.Is(err, syscall.ENOEXEC) {
		r.logger.Debug().Str("script", script).Msg("Script has no interpreter line, running it with sh")
		out, err = r.run(ctx, dir, env, ShellBinary, script)
	}

	res := Result{Output: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func (r *ExecRuntime) run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env

	logging.LogCommand(r.logger, name, args)
	return cmd.CombinedOutput()
}

// VirtualRuntime interprets scripts with an embedded POSIX shell
type VirtualRuntime struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewVirtualRuntime creates a VirtualRuntime reading scripts from fs
func NewVirtualRuntime(fs afero.Fs) *VirtualRuntime {
	return &VirtualRuntime{fs: fs, logger: logging.GetLogger("scripts.virtual")}
}

// Run parses and interprets script. A shebang line is treated as a comment.
func (r *VirtualRuntime) Run(ctx context.Context, script, dir string, env []string) (Result, error) {
	content, err := afero.ReadFile(r.fs, script)
	if err != nil {
		return Result{ExitCode: 1}, err
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(string(content)), script)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("failed to parse script: %w", err)
	}

	var out bytes.Buffer
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &out, &out),
	)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("failed to create interpreter: %w", err)
	}

	r.logger.Debug().Str("script", script).Str("dir", dir).Msg("Interpreting script")
	err = runner.Run(ctx, prog)
	res := Result{Output: out.String()}
	if err != nil {
		if exitStatus, ok := interp.IsExitStatus(err); ok {
			res.ExitCode = int(exitStatus)
			return res, nil
		}
		res.ExitCode = 1
		return res, err
	}
	return res, nil
}
