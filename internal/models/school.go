package models

import "time"

type School struct {
	ID        int64
	Name      string
	Code      string
	CreatedAt time.Time
}
