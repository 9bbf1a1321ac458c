package api

// MaxSubforumNameLength matches the subforums.name column.
const MaxSubforumNameLength = 128

type CreateSubforumRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}
