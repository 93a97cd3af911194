package rpc

import (
	"context"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
)

type userIdParams struct {
	UserObjectId string `json:"userObjectId"`
}

type productIdParams struct {
	ProductObjectId string `json:"productObjectId"`
}

type saleIdParams struct {
	SaleObjectId string `json:"saleObjectId"`
}

func registerUserMethods(d *Dispatcher, users interfaces.UserService) {
	d.Register("userSignUp", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.SignUpUserCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := users.SignUp(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("userSignIn", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.SignInUserCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := users.SignIn(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("userSignOut", func(ctx context.Context, req *Request) (any, error) {
		res, err := users.SignOut(ctx, &command.SessionCommand{SessionToken: sessionToken(req)})
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})

	d.Register("userGet", func(ctx context.Context, req *Request) (any, error) {
		var p userIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := users.FindUserById(ctx, p.UserObjectId)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("userGetByFilter", func(ctx context.Context, req *Request) (any, error) {
		var q query.FilterQuery
		if err := decode(req.Params, &q); err != nil {
			return nil, err
		}
		res, err := users.FindUsersByFilter(ctx, &q)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("userUpdate", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.UpdateUserCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := users.UpdateUser(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("userDelete", func(ctx context.Context, req *Request) (any, error) {
		var p userIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := users.DeleteUser(ctx, p.UserObjectId)
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})

	d.Register("userResetPassword", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.ResetPasswordCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := users.ResetPassword(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})

	d.Register("userConfirmPasswordReset", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.ConfirmPasswordResetCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := users.ConfirmPasswordReset(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})

	d.Register("userSetAcls", func(ctx context.Context, req *Request) (any, error) {
		res, err := users.SetAcls(ctx, &command.SessionCommand{SessionToken: sessionToken(req)})
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})
}

func registerProductMethods(d *Dispatcher, products interfaces.ProductService) {
	d.Register("productCreate", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.CreateProductCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := products.CreateProduct(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("productGet", func(ctx context.Context, req *Request) (any, error) {
		var p productIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := products.FindProductById(ctx, p.ProductObjectId)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("productGetByFilter", func(ctx context.Context, req *Request) (any, error) {
		var q query.FilterQuery
		if err := decode(req.Params, &q); err != nil {
			return nil, err
		}
		res, err := products.FindProductsByFilter(ctx, &q)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("productUpdate", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.UpdateProductCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := products.UpdateProduct(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("productDelete", func(ctx context.Context, req *Request) (any, error) {
		var p productIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := products.DeleteProduct(ctx, p.ProductObjectId)
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})
}

func registerSaleMethods(d *Dispatcher, sales interfaces.SaleService) {
	d.Register("saleCreate", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.CreateSaleCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := sales.CreateSale(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("saleGet", func(ctx context.Context, req *Request) (any, error) {
		var p saleIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := sales.FindSaleById(ctx, p.SaleObjectId)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("saleGetByFilter", func(ctx context.Context, req *Request) (any, error) {
		var q query.FilterQuery
		if err := decode(req.Params, &q); err != nil {
			return nil, err
		}
		res, err := sales.FindSalesByFilter(ctx, &q)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("saleGetByLocationRadius", func(ctx context.Context, req *Request) (any, error) {
		var q query.LocationRadiusQuery
		if err := decode(req.Params, &q); err != nil {
			return nil, err
		}
		res, err := sales.FindSalesByLocationRadius(ctx, &q)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("saleUpdate", func(ctx context.Context, req *Request) (any, error) {
		var cmd command.UpdateSaleCommand
		if err := decode(req.Params, &cmd); err != nil {
			return nil, err
		}
		res, err := sales.UpdateSale(ctx, &cmd)
		if err != nil {
			return nil, err
		}
		return res.Result, nil
	})

	d.Register("saleDelete", func(ctx context.Context, req *Request) (any, error) {
		var p saleIdParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		res, err := sales.DeleteSale(ctx, p.SaleObjectId)
		if err != nil {
			return nil, err
		}
		return res.Message, nil
	})
}
