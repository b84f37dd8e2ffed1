package models

import "time"

type Notification struct {
	Type  string    `json:"type"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Time  time.Time `json:"time"`
}
