package supervisor

import (
	"bufio"
	"io"
	"strings"
)

// maxLineBytes caps a single output line. Anything longer is split by the
// scanner rather than dropped.
const maxLineBytes = 1024 * 1024

// scanLines feeds every line of r to fn with the trailing carriage return
// stripped. A read error ends the scan silently: the caller treats it as
// end-of-stream and moves on to collecting the exit code.
func scanLines(r io.Reader, fn func(line string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		fn(strings.TrimRight(sc.Text(), "\r"))
	}
}
