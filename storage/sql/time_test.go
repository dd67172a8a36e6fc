package sql

import (
	"testing"
	"time"
)

func TestTimeFromString(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"2024-07-25 14:37:52", time.Date(2024, 7, 25, 14, 37, 52, 0, time.UTC)},
		{"2024-07-25T14:37:52.42853218Z", time.Date(2024, 7, 25, 14, 37, 52, 428532180, time.UTC)},
		{"2024-07-25 14:37:52.428532", time.Date(2024, 7, 25, 14, 37, 52, 428532000, time.UTC)},
		{"2024-07-25T14:37:52", time.Date(2024, 7, 25, 14, 37, 52, 0, time.UTC)},
		{"2024-07-25", time.Date(2024, 7, 25, 0, 0, 0, 0, time.UTC)},
		{"invalid", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := timeFromString(tc.input)
			if !result.Equal(tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, result)
			}
		})
	}
}
