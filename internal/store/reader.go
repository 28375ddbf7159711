package store

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// MaxLineSize bounds a single log line. Longer lines are malformed.
const MaxLineSize = 1024 * 1024

// ReadRecords feeds every well-formed line of r to sink and returns how many
// parsed. Malformed lines, over-long ones included, are skipped and reading
// continues with the next line.
func ReadRecords(ctx context.Context, r io.Reader, sink Sink) (int, error) {
	br := bufio.NewReader(r)
	line := make([]byte, 0, 256)
	parsed := 0

	for {
		if err := ctx.Err(); err != nil {
			return parsed, err
		}

		line = line[:0]
		tooLong := false
		for {
			chunk, isPrefix, err := br.ReadLine()
			if errors.Is(err, io.EOF) {
				if len(line) == 0 && !tooLong {
					return parsed, nil
				}
				break
			}
			if err != nil {
				return parsed, err
			}

			// chunk is only valid until the next read
			if !tooLong && len(line)+len(chunk) > MaxLineSize {
				tooLong = true
				line = line[:0]
			}
			if !tooLong {
				line = append(line, chunk...)
			}
			if !isPrefix {
				break
			}
		}
		if tooLong {
			continue
		}

		a, b, err := ParseRecord(string(line))
		if err != nil {
			continue
		}
		sink(a, b)
		parsed++
	}
}
