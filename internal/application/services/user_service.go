package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/application/mapper"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
	"github.com/4DevsO/qtut-b4a/internal/errs"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure"
)

type UserService struct {
	userRepo     repositories.UserRepository
	redisService *infrastructure.RedisService
	jwtService   *infrastructure.JWTService
	mailer       infrastructure.Mailer
	resetLimiter *infrastructure.RateLimiter
	resetTTL     time.Duration
	logger       zerolog.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	redisService *infrastructure.RedisService,
	jwtService *infrastructure.JWTService,
	mailer infrastructure.Mailer,
	resetLimiter *infrastructure.RateLimiter,
	resetTTL time.Duration,
	logger zerolog.Logger,
) interfaces.UserService {
	return &UserService{
		userRepo:     userRepo,
		redisService: redisService,
		jwtService:   jwtService,
		mailer:       mailer,
		resetLimiter: resetLimiter,
		resetTTL:     resetTTL,
		logger:       logger,
	}
}

func (s *UserService) SignUp(ctx context.Context, cmd *command.SignUpUserCommand) (*command.UserCommandResult, error) {
	validatedUser, err := entities.NewValidatedUser(entities.NewUser(cmd.Username, cmd.Email, cmd.Password))
	if err != nil {
		return nil, err
	}

	// Check if user already exists
	existingUser, err := s.userRepo.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, errs.New(errs.CodeUsernameTaken, "Account already exists for this username.")
	}

	existingUser, err = s.userRepo.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, errs.New(errs.CodeEmailTaken, "Account already exists for this email address.")
	}

	createdUser, err := s.userRepo.Create(ctx, validatedUser)
	if err != nil {
		return nil, err
	}

	return &command.UserCommandResult{
		Result: mapper.NewUserResultFromEntity(createdUser),
	}, nil
}

func (s *UserService) SignIn(ctx context.Context, cmd *command.SignInUserCommand) (*command.UserCommandResult, error) {
	if cmd.Username == "" {
		return nil, errs.New(errs.CodeUsernameMissing, "username/email is required.")
	}
	if cmd.Password == "" {
		return nil, errs.New(errs.CodePasswordMissing, "password is required.")
	}

	user, err := s.userRepo.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CheckPassword(cmd.Password) != nil {
		return nil, errs.New(errs.CodeObjectNotFound, "Invalid username/password.")
	}

	token, err := s.jwtService.GenerateToken(user.Id)
	if err != nil {
		return nil, err
	}
	if err := s.redisService.SetToken(ctx, token, user.Id, s.jwtService.TTL()); err != nil {
		return nil, err
	}

	result := mapper.NewUserResultFromEntity(user)
	result.SessionToken = token
	return &command.UserCommandResult{Result: result}, nil
}

func (s *UserService) SignOut(ctx context.Context, cmd *command.SessionCommand) (*command.MessageCommandResult, error) {
	if _, err := s.Authenticate(ctx, cmd.SessionToken); err != nil {
		return nil, err
	}
	if err := s.redisService.DeleteToken(ctx, cmd.SessionToken); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "User was signed out"}, nil
}

// Authenticate resolves a session token to its user. The token must be
// correctly signed and still registered.
func (s *UserService) Authenticate(ctx context.Context, sessionToken string) (*entities.User, error) {
	if sessionToken == "" {
		return nil, errs.New(errs.CodeSessionMissing, "Session token is required")
	}
	userID, err := s.jwtService.ParseToken(sessionToken)
	if err != nil {
		return nil, err
	}

	registered, err := s.redisService.GetToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if registered != userID {
		return nil, errs.New(errs.CodeInvalidSessionToken, "Invalid session token")
	}

	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.New(errs.CodeInvalidSessionToken, "Invalid session token")
	}
	return user, nil
}

func (s *UserService) FindUserById(ctx context.Context, id string) (*query.UserQueryResult, error) {
	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("User not found for %s", id)
	}

	return &query.UserQueryResult{
		Result: mapper.NewUserResultFromEntity(user),
	}, nil
}

func (s *UserService) FindUsersByFilter(ctx context.Context, q *query.FilterQuery) (*query.UserQueryListResult, error) {
	users, err := s.userRepo.FindByFilter(ctx, filter.FromMap(q.Filter))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errs.NotFound("No users were found for the filter %s", renderJSON(q.Filter))
	}

	return &query.UserQueryListResult{
		Result: mapper.NewUserResultsFromEntities(users),
	}, nil
}

func (s *UserService) UpdateUser(ctx context.Context, cmd *command.UpdateUserCommand) (*command.UserCommandResult, error) {
	patch := cmd.User
	if patch == nil {
		patch = &entities.UserPatch{}
	}

	user, err := s.userRepo.FindById(ctx, patch.Id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("User not found for %s", patch.Id)
	}

	if err := patch.Apply(user); err != nil {
		return nil, err
	}
	updatedUser, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	return &command.UserCommandResult{
		Result: mapper.NewUserResultFromEntity(updatedUser),
	}, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) (*command.MessageCommandResult, error) {
	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("User not found for %s", id)
	}

	if err := s.userRepo.Delete(ctx, user.Id); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "User was deleted"}, nil
}

// ResetPassword mails a one-time reset token to the owner of the email.
func (s *UserService) ResetPassword(ctx context.Context, cmd *command.ResetPasswordCommand) (*command.MessageCommandResult, error) {
	if cmd.Email == "" {
		return nil, errs.New(errs.CodeEmailMissing, "you must provide an email")
	}
	if !s.resetLimiter.Allow(cmd.Email) {
		wait := s.resetLimiter.RetryAfter(cmd.Email).Round(time.Second)
		return nil, errs.Newf(errs.CodeRequestLimit, "Too many password reset requests, please try again in %s", wait)
	}

	user, err := s.userRepo.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.Newf(errs.CodeEmailNotFound, "No user found with email %s.", cmd.Email)
	}

	token := uuid.NewString()
	if err := s.redisService.SetResetToken(ctx, token, user.Id, s.resetTTL); err != nil {
		return nil, err
	}

	err = s.mailer.Send(ctx, infrastructure.Mail{
		To:      user.Email,
		Subject: "Password reset",
		Text:    fmt.Sprintf("Hi %s, use this code to reset your password: %s", user.Username, token),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>use this code to reset your password: <strong>%s</strong></p>", user.Username, token),
	})
	if err != nil {
		// Clean up the token if we couldn't send it
		if _, delErr := s.redisService.TakeResetToken(ctx, token); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("failed to drop unsent reset token")
		}
		return nil, errs.Wrap(errs.CodeInternal, err)
	}

	return &command.MessageCommandResult{Message: "Password reset request was sent"}, nil
}

func (s *UserService) ConfirmPasswordReset(ctx context.Context, cmd *command.ConfirmPasswordResetCommand) (*command.MessageCommandResult, error) {
	if cmd.Password == "" {
		return nil, errs.New(errs.CodePasswordMissing, "password is required.")
	}

	userID, err := s.redisService.TakeResetToken(ctx, cmd.Token)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errs.NotFound("Password reset token was not found")
	}

	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("User not found for %s", userID)
	}

	if err := user.SetPassword(cmd.Password); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "Password was reset"}, nil
}

// SetAcls restricts the caller's own record to owner-only access.
func (s *UserService) SetAcls(ctx context.Context, cmd *command.SessionCommand) (*command.MessageCommandResult, error) {
	user, err := s.Authenticate(ctx, cmd.SessionToken)
	if err != nil {
		return nil, err
	}

	user.RestrictToOwner()
	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "Acls Updated"}, nil
}
