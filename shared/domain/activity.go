package domain

import "time"

// Activity is a row of the activity log consumed by the notification feed.
type Activity struct {
	Id        int64
	UserId    UserId
	Type      ActivityType
	ContentId PostId
	ThreadId  ThreadId
	CreatedAt time.Time
	IsRead    bool
}
