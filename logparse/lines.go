package logparse

import (
	"bufio"
	"io"
)

// MaxLineSize bounds a log line. Longer lines are dropped whole.
const MaxLineSize = 1 << 20

// Lines calls fn with every line of r and its 1-based number, line endings
// stripped. A line longer than MaxLineSize is skipped but still numbered, so
// reading continues past it.
func Lines(r io.Reader, fn func(n int, line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var buf []byte
	n, dropped := 0, false
	for {
		frag, more, err := br.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !dropped {
			if len(buf)+len(frag) > MaxLineSize {
				dropped, buf = true, buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if more {
			continue
		}
		n++
		if !dropped {
			fn(n, string(buf))
		}
		buf, dropped = buf[:0], false
	}
}
