package domain

import "time"

type PostCreationData struct {
	ThreadId  ThreadId
	Author    User
	Content   PostContent
	CreatedAt *time.Time // now if nil
}

type PostUpdateData struct {
	Content  PostContent
	EditedAt *time.Time // now if nil
}

type Author struct {
	Id       UserId
	Username Username
	Avatar   string
}

type Post struct {
	Id          PostId
	ThreadId    ThreadId
	Author      Author
	Content     PostContent
	ContentHTML string `json:",omitempty"`
	CreatedAt   time.Time
	EditedAt    *time.Time
}

// PostDeletion describes what a post deletion did to its thread.
type PostDeletion struct {
	ThreadId      ThreadId
	SubforumId    SubforumId
	ThreadSlug    ThreadSlug
	ThreadDeleted bool
}

// PostLocation resolves a post permalink to a page of its thread.
type PostLocation struct {
	ThreadId ThreadId
	PostId   PostId
	Position int
	Page     int
}

type PostSearchResult struct {
	Post
	ThreadTitle ThreadTitle
	ThreadSlug  ThreadSlug
}
