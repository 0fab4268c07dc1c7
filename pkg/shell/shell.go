// Package shell implements the rill script runner and interactive loop.
package shell

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/logutil"
	"github.com/rillsh/rill/pkg/prog"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram. It is the last subprogram tried, and
// accepts any invocation.
type Program struct{}

func (p *Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if !isatty.IsTerminal(fds[2].Fd()) {
		diag.DisableANSI()
	}

	ev, cleanup, err := setupEvaler(f, fds[2])
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) > 0 {
		return script(ev, fds, args, &scriptCfg{
			Cmd: f.CodeInArg, ParseOnly: f.ParseOnly, JSON: f.JSON})
	}
	if f.CodeInArg {
		return prog.BadUsage("-c requires an argument")
	}
	interact(ev, fds)
	return nil
}
