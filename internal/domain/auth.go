package domain

// SubjectType differentiates end-user tokens from agent tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "user"
	SubjectTypeAgent SubjectType = "agent"
)
