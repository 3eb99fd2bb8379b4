package store

import "time"

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
