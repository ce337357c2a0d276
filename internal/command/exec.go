package command

import (
	"bytes"
	"os/exec"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// execExecCommand runs an operator-supplied external program (a
// post-backup hook, a WAL push/get script) as a child process and
// captures its combined output, per spec.md §4.F's `exec` CLI command.
// The core has no opinion about what the program is; it only arranges
// to run it and report failure.
func (e *Executor) execExecCommand(cmd *descriptor.Command) (Result, error) {
	if len(cmd.ExecArgv) == 0 {
		return Result{}, pgerror.InvalidArgument("argv", "exec requires a program and arguments")
	}
	var c = exec.Command(cmd.ExecArgv[0], cmd.ExecArgv[1:]...)
	var out bytes.Buffer
	c.Stdout, c.Stderr = &out, &out
	if err := c.Run(); err != nil {
		return Result{}, pgerror.IO("running exec command: "+out.String(), err)
	}
	return Result{ExecOutput: out.String()}, nil
}
