package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/parse"
	"github.com/rillsh/rill/pkg/prog"
)

// Configuration for the script mode.
type scriptCfg struct {
	Cmd       bool
	ParseOnly bool
	JSON      bool
}

// script executes a rill script.
func script(ev *eval.Evaler, fds [3]*os.File, args []string, cfg *scriptCfg) error {
	arg0 := args[0]

	var name, code string
	if cfg.Cmd {
		name = "code from -c"
		code = arg0
	} else {
		var err error
		name, err = filepath.Abs(arg0)
		if err != nil {
			fmt.Fprintf(fds[2],
				"cannot get full path of script %q: %v\n", arg0, err)
			return prog.Exit(2)
		}
		code, err = readFileUTF8(name)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot read script %q: %v\n", name, err)
			return prog.Exit(2)
		}
	}

	src := parse.Source{Name: name, Code: code}
	if cfg.ParseOnly {
		_, err := parse.Parse(src, ev.Registry())
		if cfg.JSON {
			fmt.Fprintf(fds[1], "%s\n", errorsToJSON(err))
		} else if err != nil {
			diag.ShowError(fds[2], err)
		}
		if err != nil {
			return prog.Exit(2)
		}
		return nil
	}

	if !evalAndPrint(ev, fds, src) {
		return prog.Exit(2)
	}
	return nil
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}

// An auxiliary struct for converting errors with diagnostics information
// to JSON.
type errorInJSON struct {
	FileName string `json:"fileName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

// errorsToJSON converts parse errors into JSON.
func errorsToJSON(parseErr error) []byte {
	var converted []errorInJSON
	for _, e := range parse.UnpackErrors(parseErr) {
		converted = append(converted,
			errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
	}

	jsonError, errMarshal := json.Marshal(converted)
	if errMarshal != nil {
		return []byte(`[{"message":"Unable to convert the errors to JSON"}]`)
	}
	return jsonError
}
