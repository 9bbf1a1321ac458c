package domain

import (
	"fmt"
	"time"
)

// AuthorOf builds the display author, falling back to the default avatar.
func AuthorOf(u User) Author {
	avatar := u.Avatar
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return Author{Id: u.Id, Username: u.Username, Avatar: avatar}
}

// for debug
func (p *Post) String() string {
	return fmt.Sprintf("[id:%d, thread:%d, author:%d, created:%s, content:%q]",
		p.Id, p.ThreadId, p.Author.Id, p.CreatedAt.Format(time.StampMilli), p.Content)
}

func (t *Thread) String() string {
	s := fmt.Sprintf("[id:%d, slug:%s, subforum:%d, posts:%d, sticky:%t, locked:%t, last_post:",
		t.Id, t.Slug, t.SubforumId, t.PostCount, t.IsSticky, t.IsLocked)
	if t.LastPost == nil {
		return s + "none]"
	}
	return s + fmt.Sprintf("%d@%s]", t.LastPost.Id, t.LastPost.CreatedAt.Format(time.StampMilli))
}
