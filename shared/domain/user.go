package domain

// User is the minimal author/requester view the forum core needs.
// Accounts themselves are managed elsewhere.
type User struct {
	Id       UserId
	Username Username
	Avatar   string
	Admin    bool
}
