package command

import (
	"github.com/4DevsO/qtut-b4a/internal/application/common"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type SignUpUserCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInUserCommand struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionCommand carries the caller's session token.
type SessionCommand struct {
	SessionToken string `json:"sessionToken"`
}

type UpdateUserCommand struct {
	User *entities.UserPatch `json:"user"`
}

type ResetPasswordCommand struct {
	Email string `json:"email"`
}

type ConfirmPasswordResetCommand struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UserCommandResult struct {
	Result *common.UserResult `json:"result"`
}

// MessageCommandResult is the confirmation returned by operations that have
// no entity to show.
type MessageCommandResult struct {
	Message string `json:"message"`
}
