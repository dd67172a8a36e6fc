package sql

import (
	"time"
)

// timeFromString parses the created_at formats the two drivers hand back:
// SQLite stores CURRENT_TIMESTAMP as "2006-01-02 15:04:05" and MySQL
// returns DATETIME as text without parseTime.
func timeFromString(in string) time.Time {
	for _, format := range []string{
		time.DateTime,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(format, in, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
