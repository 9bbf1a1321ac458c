package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	SubforumId SubforumId
	Title      ThreadTitle
	Author     User
	IsSticky   bool
	IsLocked   bool
	Content    PostContent // body of the first post
	CreatedAt  *time.Time  // now if nil
}

type ThreadUpdateData struct {
	Title     *ThreadTitle
	Content   *PostContent // replaces the first post's content
	UpdatedAt *time.Time   // now if nil
}

// LastPost points at the most recent post of a thread.
type LastPost struct {
	Id         PostId
	CreatedAt  time.Time
	AuthorId   UserId
	AuthorName Username
}

type Thread struct {
	Id         ThreadId
	SubforumId SubforumId
	Title      ThreadTitle
	Slug       ThreadSlug
	AuthorId   UserId
	IsSticky   bool
	IsLocked   bool
	ViewCount  int64
	PostCount  int
	LastPost   *LastPost // nil when the thread has no posts left
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Subscription struct {
	UserId      UserId
	ThreadId    ThreadId
	ThreadTitle ThreadTitle
	ThreadSlug  ThreadSlug
	LastPostAt  *time.Time
	CreatedAt   time.Time
}
