// Package buildinfo contains build information.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/rillsh/rill/pkg/prog"
)

// Version identifies the version of rill.
const Version = "0.1.0"

// Program is the buildinfo subprogram: it prints version information when
// the -version flag is given.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	if !f.Version {
		return prog.ErrNotSuitable
	}
	if f.JSON {
		data, _ := json.Marshal(struct {
			Version   string `json:"version"`
			GoVersion string `json:"goversion"`
		}{Version, runtime.Version()})
		fmt.Fprintf(fds[1], "%s\n", data)
	} else {
		fmt.Fprintln(fds[1], Version)
	}
	return nil
}
