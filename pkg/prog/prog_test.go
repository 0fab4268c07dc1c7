package prog

import (
	"errors"
	"os"
	"strings"
	"testing"
)

// testProgram implements Program with a fixed behavior.
type testProgram struct {
	err    error
	writes string
	ran    *bool
}

func (p testProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	if p.ran != nil {
		*p.ran = true
	}
	if p.writes != "" {
		fds[1].WriteString(p.writes)
	}
	return p.err
}

// run invokes Run with pipes for stdout and stderr and returns the exit
// status along with what was written to each.
func run(t *testing.T, args []string, p Program) (int, string, string) {
	t.Helper()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer devNull.Close()

	exit := Run([3]*os.File{devNull, outW, errW}, args, p)

	outW.Close()
	errW.Close()
	stdout := readAll(t, outR)
	stderr := readAll(t, errR)
	return exit, stdout, stderr
}

func readAll(t *testing.T, f *os.File) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	f.Close()
	return sb.String()
}

func TestRun(t *testing.T) {
	exit, _, _ := run(t, []string{"rill"}, testProgram{})
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}

	exit, _, stderr := run(t, []string{"rill"}, testProgram{err: errors.New("boom")})
	if exit != 2 || !strings.Contains(stderr, "boom") {
		t.Errorf("exit = %d, stderr = %q", exit, stderr)
	}

	exit, _, _ = run(t, []string{"rill"}, testProgram{err: Exit(3)})
	if exit != 3 {
		t.Errorf("exit = %d, want 3", exit)
	}

	// Exit(0) is success.
	exit, _, _ = run(t, []string{"rill"}, testProgram{err: Exit(0)})
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}

	exit, _, stderr = run(t, []string{"rill"}, testProgram{err: BadUsage("bad")})
	if exit != 2 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("exit = %d, stderr = %q", exit, stderr)
	}
}

func TestRun_Flags(t *testing.T) {
	exit, stdout, _ := run(t, []string{"rill", "-help"}, testProgram{})
	if exit != 0 || !strings.Contains(stdout, "Usage:") {
		t.Errorf("exit = %d, stdout = %q", exit, stdout)
	}

	exit, _, stderr := run(t, []string{"rill", "-bogus"}, testProgram{})
	if exit != 2 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("exit = %d, stderr = %q", exit, stderr)
	}

	// -h is not defined; it gets the same treatment as any unknown flag.
	exit, _, stderr = run(t, []string{"rill", "-h"}, testProgram{})
	if exit != 2 || !strings.Contains(stderr, "-h") {
		t.Errorf("exit = %d, stderr = %q", exit, stderr)
	}
}

func TestComposite(t *testing.T) {
	var first, second bool
	exit, stdout, _ := run(t, []string{"rill"}, Composite(
		testProgram{err: ErrNotSuitable, ran: &first},
		testProgram{writes: "ran\n", ran: &second}))
	if exit != 0 || stdout != "ran\n" {
		t.Errorf("exit = %d, stdout = %q", exit, stdout)
	}
	if !first || !second {
		t.Errorf("ran flags = %v, %v, want both", first, second)
	}

	// The first suitable program stops the chain.
	var third bool
	run(t, []string{"rill"}, Composite(
		testProgram{writes: "ran\n"},
		testProgram{ran: &third}))
	if third {
		t.Error("program after a suitable one still ran")
	}

	exit, _, stderr := run(t, []string{"rill"},
		Composite(testProgram{err: ErrNotSuitable}))
	if exit != 2 || !strings.Contains(stderr, "internal error") {
		t.Errorf("exit = %d, stderr = %q", exit, stderr)
	}
}
