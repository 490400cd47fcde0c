// Package logtail reads the end of the remote's own log file for the Log view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory stays bounded however large the log grows. Lines come back oldest
// first.
//
// # Levels
//
// The logging package writes zerolog console output:
//
//	2026-10-19T21:04:05+02:00 WRN request timed out, waking TV component=jointspace
//
// Parse picks up the three-letter level token after the timestamp so the UI
// can colour records and AtLeast can hide the chatter below a threshold.
//
// Example usage:
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//	if err != nil {
//		return err
//	}
//	for _, l := range logtail.AtLeast(lines, zerolog.WarnLevel) {
//		fmt.Println(l.Text)
//	}
package logtail
