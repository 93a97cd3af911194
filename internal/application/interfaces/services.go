package interfaces

import (
	"context"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type UserService interface {
	SignUp(ctx context.Context, cmd *command.SignUpUserCommand) (*command.UserCommandResult, error)
	SignIn(ctx context.Context, cmd *command.SignInUserCommand) (*command.UserCommandResult, error)
	SignOut(ctx context.Context, cmd *command.SessionCommand) (*command.MessageCommandResult, error)
	Authenticate(ctx context.Context, sessionToken string) (*entities.User, error)
	FindUserById(ctx context.Context, id string) (*query.UserQueryResult, error)
	FindUsersByFilter(ctx context.Context, q *query.FilterQuery) (*query.UserQueryListResult, error)
	UpdateUser(ctx context.Context, cmd *command.UpdateUserCommand) (*command.UserCommandResult, error)
	DeleteUser(ctx context.Context, id string) (*command.MessageCommandResult, error)
	ResetPassword(ctx context.Context, cmd *command.ResetPasswordCommand) (*command.MessageCommandResult, error)
	ConfirmPasswordReset(ctx context.Context, cmd *command.ConfirmPasswordResetCommand) (*command.MessageCommandResult, error)
	SetAcls(ctx context.Context, cmd *command.SessionCommand) (*command.MessageCommandResult, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, cmd *command.CreateProductCommand) (*command.ProductCommandResult, error)
	FindProductById(ctx context.Context, id string) (*query.ProductQueryResult, error)
	FindProductsByFilter(ctx context.Context, q *query.FilterQuery) (*query.ProductQueryListResult, error)
	UpdateProduct(ctx context.Context, cmd *command.UpdateProductCommand) (*command.ProductCommandResult, error)
	DeleteProduct(ctx context.Context, id string) (*command.MessageCommandResult, error)
}

type SaleService interface {
	CreateSale(ctx context.Context, cmd *command.CreateSaleCommand) (*command.SaleCommandResult, error)
	FindSaleById(ctx context.Context, id string) (*query.SaleQueryResult, error)
	FindSalesByFilter(ctx context.Context, q *query.FilterQuery) (*query.SaleQueryListResult, error)
	FindSalesByLocationRadius(ctx context.Context, q *query.LocationRadiusQuery) (*query.SaleQueryListResult, error)
	UpdateSale(ctx context.Context, cmd *command.UpdateSaleCommand) (*command.SaleCommandResult, error)
	DeleteSale(ctx context.Context, id string) (*command.MessageCommandResult, error)
}
