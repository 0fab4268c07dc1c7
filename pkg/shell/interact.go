package shell

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/parse"
)

// interact runs a read-eval-print loop on fds[0]. The prompt is only
// written when the input is a terminal, so piping a script into the shell
// does not echo prompts into the output.
func interact(ev *eval.Evaler, fds [3]*os.File) {
	tty := isatty.IsTerminal(fds[0].Fd())
	scanner := bufio.NewScanner(fds[0])
	line := 0
	for {
		if tty {
			fmt.Fprint(fds[1], "rill> ")
		}
		if !scanner.Scan() {
			if tty {
				fmt.Fprintln(fds[1])
			}
			return
		}
		line++
		code := scanner.Text()
		if code == "" {
			continue
		}
		src := parse.Source{Name: fmt.Sprintf("[tty %d]", line), Code: code}
		// Failures are reported and the loop continues; only EOF ends
		// the session.
		evalAndPrint(ev, fds, src)
	}
}
