package domain

type ReactionCount struct {
	Type  ReactionType
	Count int
}

type ReactionUser struct {
	Id       UserId
	Username Username
	Avatar   string
}
