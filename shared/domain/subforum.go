package domain

import "time"

type Subforum struct {
	Id        SubforumId
	Name      string
	Slug      string
	CreatedAt time.Time
}
