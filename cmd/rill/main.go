// Rill is a shell whose pipelines carry structured values instead of
// bytes. Commands are resolved and checked against their signatures at
// parse time, streams flow through pipelines lazily, and external plugins
// provide commands over a framed JSON-RPC protocol.
package main

import (
	"os"

	"github.com/rillsh/rill/pkg/buildinfo"
	"github.com/rillsh/rill/pkg/lsp"
	"github.com/rillsh/rill/pkg/prog"
	"github.com/rillsh/rill/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			buildinfo.Program{}, &lsp.Program{}, &shell.Program{})))
}
