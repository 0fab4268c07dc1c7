package eval_test

import (
	"testing"

	"github.com/rillsh/rill/pkg/eval/errs"
	. "github.com/rillsh/rill/pkg/eval/evaltest"
)

func TestStrLength(t *testing.T) {
	Test(t,
		That(`"abc" | str length`).Puts(int64(3)),
		That(`"" | str length`).Puts(int64(0)),
		// Codepoints, not bytes.
		That(`"héllo" | str length`).Puts(int64(5)),
		That("put 1 | str length").Throws(ErrorWithType(errs.TypeMismatch{})),
	)
}

func TestStrCase(t *testing.T) {
	Test(t,
		That(`"aBc" | str upcase`).Puts("ABC"),
		That(`"aBc" | str downcase`).Puts("abc"),
	)
}

func TestStrJoin(t *testing.T) {
	Test(t,
		That(`put a b c | str join "-"`).Puts("a-b-c"),
		That("put a b c | str join").Puts("abc"),
		That(`put 1 2 | str join ", "`).Puts("1, 2"),
		That(`put | str join "-"`).Puts(""),
		That(`[x, y] | str join "/"`).Puts("x/y"),
	)
}
