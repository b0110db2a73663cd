package web

import "time"

type GameSummary struct {
	Code      string    `json:"code"`
	HostName  string    `json:"host_name"`
	Players   int       `json:"players"`
	CreatedAt time.Time `json:"created_at"`
}
