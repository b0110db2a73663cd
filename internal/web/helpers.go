package web

import (
	"strconv"
	"time"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("15:04")
}
