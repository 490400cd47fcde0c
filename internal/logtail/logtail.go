package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Line is one log record as written by the console writer.
type Line struct {
	Level zerolog.Level // NoLevel when the line carries no level token
	Text  string
}

// consoleLevels maps the console writer's three-letter tokens.
var consoleLevels = map[string]zerolog.Level{
	"TRC": zerolog.TraceLevel,
	"DBG": zerolog.DebugLevel,
	"INF": zerolog.InfoLevel,
	"WRN": zerolog.WarnLevel,
	"ERR": zerolog.ErrorLevel,
	"FTL": zerolog.FatalLevel,
	"PNC": zerolog.PanicLevel,
}

// Read returns at most maxLines records from the end of the file at path.
// A missing file yields no lines.
func Read(path string, maxLines int) ([]Line, error) {
	if maxLines <= 0 || strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	start := 0
	if count == maxLines {
		start = idx
	}
	lines := make([]Line, count)
	for i := range lines {
		lines[i] = Parse(ring[(start+i)%maxLines])
	}
	return lines, nil
}

// Parse reads the level token that follows the timestamp.
func Parse(text string) Line {
	line := Line{Level: zerolog.NoLevel, Text: text}
	fields := strings.Fields(text)
	if len(fields) >= 2 {
		if lvl, ok := consoleLevels[fields[1]]; ok {
			line.Level = lvl
		}
	}
	return line
}

// AtLeast keeps the lines at min or above. Lines without a level follow the
// record before them, so wrapped output stays with its record.
func AtLeast(lines []Line, min zerolog.Level) []Line {
	out := make([]Line, 0, len(lines))
	keep := false
	for _, l := range lines {
		if l.Level != zerolog.NoLevel {
			keep = l.Level >= min
		}
		if keep {
			out = append(out, l)
		}
	}
	return out
}
