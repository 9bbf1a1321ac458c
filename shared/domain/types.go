package domain

type (
	UserId     = int64
	Username   = string
	SubforumId = int64

	ThreadId    = int64
	ThreadTitle = string
	ThreadSlug  = string

	PostId      = int64
	PostContent = string

	ReactionType = string
	ActivityType = string
)

const (
	// DefaultAvatar is shown for authors without an avatar of their own.
	DefaultAvatar = "/static/img/default-avatar.png"

	ActivityThreadReply ActivityType = "thread_reply"
)
