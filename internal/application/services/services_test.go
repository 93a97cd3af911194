package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
	"github.com/4DevsO/qtut-b4a/internal/errs"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure/db/postgres"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []infrastructure.Mail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m infrastructure.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) last() infrastructure.Mail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type testEnv struct {
	users    interfaces.UserService
	products interfaces.ProductService
	sales    interfaces.SaleService
	saleRepo repositories.SaleRepository
	mailer   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := postgres.Open(postgres.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	saleRepo := postgres.NewSaleRepository(db)
	mailer := &fakeMailer{}

	return &testEnv{
		users: NewUserService(userRepo, infrastructure.NewRedisService(client),
			infrastructure.NewJWTService("secret", time.Hour), mailer,
			infrastructure.NewRateLimiter(time.Hour, 3), 15*time.Minute, zerolog.Nop()),
		products: NewProductService(productRepo, userRepo),
		sales:    NewSaleService(saleRepo, productRepo, userRepo),
		saleRepo: saleRepo,
		mailer:   mailer,
	}
}

func (e *testEnv) signUp(t *testing.T, username string) string {
	t.Helper()
	res, err := e.users.SignUp(context.Background(), &command.SignUpUserCommand{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return res.Result.Id
}

func (e *testEnv) createProduct(t *testing.T, owner, name string, price float64) string {
	t.Helper()
	res, err := e.products.CreateProduct(context.Background(), &command.CreateProductCommand{
		Name:            name,
		Price:           price,
		CreatorObjectId: owner,
	})
	require.NoError(t, err)
	return res.Result.Id
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errs.From(err).Code, err.Error())
}

func TestUserSignUp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.users.SignUp(ctx, &command.SignUpUserCommand{Username: "alice", Email: "alice@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.False(t, res.Result.Premium)
	assert.Equal(t, "alice", res.Result.Username)

	tests := []struct {
		name string
		cmd  command.SignUpUserCommand
		code int
	}{
		{"username taken", command.SignUpUserCommand{Username: "alice", Email: "other@example.com", Password: "x"}, errs.CodeUsernameTaken},
		{"email taken", command.SignUpUserCommand{Username: "bob", Email: "alice@example.com", Password: "x"}, errs.CodeEmailTaken},
		{"username missing", command.SignUpUserCommand{Email: "bob@example.com", Password: "x"}, errs.CodeUsernameMissing},
		{"password missing", command.SignUpUserCommand{Username: "bob", Email: "bob@example.com"}, errs.CodePasswordMissing},
		{"invalid email", command.SignUpUserCommand{Username: "bob", Email: "bob", Password: "x"}, errs.CodeInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.SignUp(ctx, &tt.cmd)
			requireCode(t, err, tt.code)
		})
	}
}

func TestUserSignInAndSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.signUp(t, "alice")

	_, err := env.users.SignIn(ctx, &command.SignInUserCommand{Username: "alice", Password: "wrong"})
	requireCode(t, err, errs.CodeObjectNotFound)
	_, err = env.users.SignIn(ctx, &command.SignInUserCommand{Username: "nobody", Password: "secret"})
	requireCode(t, err, errs.CodeObjectNotFound)

	res, err := env.users.SignIn(ctx, &command.SignInUserCommand{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, id, res.Result.Id)
	require.NotEmpty(t, res.Result.SessionToken)

	user, err := env.users.Authenticate(ctx, res.Result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, id, user.Id)

	_, err = env.users.SignOut(ctx, &command.SessionCommand{SessionToken: res.Result.SessionToken})
	require.NoError(t, err)
	_, err = env.users.Authenticate(ctx, res.Result.SessionToken)
	requireCode(t, err, errs.CodeInvalidSessionToken)
}

func TestUserSetAcls(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.signUp(t, "alice")

	_, err := env.users.SetAcls(ctx, &command.SessionCommand{})
	requireCode(t, err, errs.CodeSessionMissing)
	_, err = env.users.SetAcls(ctx, &command.SessionCommand{SessionToken: "forged"})
	requireCode(t, err, errs.CodeInvalidSessionToken)

	signIn, err := env.users.SignIn(ctx, &command.SignInUserCommand{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	res, err := env.users.SetAcls(ctx, &command.SessionCommand{SessionToken: signIn.Result.SessionToken})
	require.NoError(t, err)
	assert.Equal(t, "Acls Updated", res.Message)

	got, err := env.users.FindUserById(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.OwnerOnlyACL(id), got.Result.ACL)
}

func TestUserUpdateKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.signUp(t, "alice")

	premium := true
	res, err := env.users.UpdateUser(ctx, &command.UpdateUserCommand{User: &entities.UserPatch{
		Id:         id,
		Premium:    &premium,
		Attributes: map[string]any{"city": "Lisbon"},
	}})
	require.NoError(t, err)
	assert.True(t, res.Result.Premium)
	assert.Equal(t, "alice", res.Result.Username)
	assert.Equal(t, "alice@example.com", res.Result.Email)
	assert.Equal(t, "Lisbon", res.Result.Attributes["city"])

	found, err := env.users.FindUsersByFilter(ctx, &query.FilterQuery{Filter: map[string]any{"city": "Lis"}})
	require.NoError(t, err)
	require.Len(t, found.Result, 1)

	_, err = env.users.UpdateUser(ctx, &command.UpdateUserCommand{User: &entities.UserPatch{Id: "missing"}})
	requireCode(t, err, errs.CodeNotFound)
}

func TestUserDeleteThenGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.signUp(t, "alice")

	res, err := env.users.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "User was deleted", res.Message)

	_, err = env.users.FindUserById(ctx, id)
	requireCode(t, err, errs.CodeNotFound)
	assert.Contains(t, err.Error(), "User not found for "+id)

	_, err = env.users.DeleteUser(ctx, id)
	requireCode(t, err, errs.CodeNotFound)
}

func TestUserFilterWithoutMatchesIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alice")

	_, err := env.users.FindUsersByFilter(context.Background(), &query.FilterQuery{Filter: map[string]any{"username": "zzz"}})
	requireCode(t, err, errs.CodeNotFound)
	assert.Contains(t, err.Error(), `No users were found for the filter {"username":"zzz"}`)
}

func TestUserPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.signUp(t, "alice")

	_, err := env.users.ResetPassword(ctx, &command.ResetPasswordCommand{Email: "nobody@example.com"})
	requireCode(t, err, errs.CodeEmailNotFound)
	_, err = env.users.ResetPassword(ctx, &command.ResetPasswordCommand{})
	requireCode(t, err, errs.CodeEmailMissing)

	res, err := env.users.ResetPassword(ctx, &command.ResetPasswordCommand{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Password reset request was sent", res.Message)

	mail := env.mailer.last()
	assert.Equal(t, "alice@example.com", mail.To)
	token := mail.Text[strings.LastIndex(mail.Text, " ")+1:]

	_, err = env.users.ConfirmPasswordReset(ctx, &command.ConfirmPasswordResetCommand{Token: token, Password: "fresh"})
	require.NoError(t, err)

	_, err = env.users.SignIn(ctx, &command.SignInUserCommand{Username: "alice", Password: "secret"})
	requireCode(t, err, errs.CodeObjectNotFound)
	_, err = env.users.SignIn(ctx, &command.SignInUserCommand{Username: "alice", Password: "fresh"})
	require.NoError(t, err)

	// a reset token works once
	_, err = env.users.ConfirmPasswordReset(ctx, &command.ConfirmPasswordResetCommand{Token: token, Password: "again"})
	requireCode(t, err, errs.CodeNotFound)
}

func TestUserPasswordResetIsRateLimited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.signUp(t, "alice")

	for i := 0; i < 3; i++ {
		_, err := env.users.ResetPassword(ctx, &command.ResetPasswordCommand{Email: "alice@example.com"})
		require.NoError(t, err)
	}
	_, err := env.users.ResetPassword(ctx, &command.ResetPasswordCommand{Email: "alice@example.com"})
	requireCode(t, err, errs.CodeRequestLimit)
	assert.Contains(t, err.Error(), "please try again in 1h0m0s")
}

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")

	created, err := env.products.CreateProduct(ctx, &command.CreateProductCommand{
		Name:            "Widget",
		Price:           10,
		Description:     "small",
		Pictures:        []string{"a.png", "b.png"},
		Tags:            []string{"tool"},
		CreatorObjectId: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, owner, created.Result.UserObjectId)
	require.NotNil(t, created.Result.User)
	assert.Equal(t, owner, created.Result.User.ObjectId)

	got, err := env.products.FindProductById(ctx, created.Result.Id)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Result.Name)
	assert.Equal(t, 10.0, got.Result.Price)
	assert.Equal(t, "small", got.Result.Description)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Result.Pictures)
	assert.Equal(t, []string{"tool"}, got.Result.Tags)

	found, err := env.products.FindProductsByFilter(ctx, &query.FilterQuery{Filter: map[string]any{"name": "Wid"}})
	require.NoError(t, err)
	require.Len(t, found.Result, 1)
	assert.Equal(t, created.Result.Id, found.Result[0].Id)

	_, err = env.products.FindProductsByFilter(ctx, &query.FilterQuery{Filter: map[string]any{"name": "zzz"}})
	requireCode(t, err, errs.CodeNotFound)

	price := 12.5
	stranger := "someone-else"
	updated, err := env.products.UpdateProduct(ctx, &command.UpdateProductCommand{Product: &entities.ProductPatch{
		Id:           created.Result.Id,
		Price:        &price,
		UserObjectId: &stranger,
	}})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Result.Price)
	assert.Equal(t, "Widget", updated.Result.Name)
	assert.Equal(t, stranger, updated.Result.UserObjectId)

	_, err = env.products.DeleteProduct(ctx, created.Result.Id)
	require.NoError(t, err)
	_, err = env.products.FindProductById(ctx, created.Result.Id)
	requireCode(t, err, errs.CodeNotFound)
}

func TestProductCreateRequiresCreator(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.products.CreateProduct(context.Background(), &command.CreateProductCommand{Name: "Widget", CreatorObjectId: "ghost"})
	requireCode(t, err, errs.CodeNotFound)
	assert.Contains(t, err.Error(), "User not found for ghost")
}

func saleCommand(owner string, products []string, main string) *command.CreateSaleCommand {
	refs := make(entities.RefList, len(products))
	for i, p := range products {
		refs[i] = entities.Ref(p)
	}
	return &command.CreateSaleCommand{
		Fixed:               true,
		Products:            refs,
		MainProductObjectId: main,
		Card:                true,
		Location:            entities.GeoPoint{Latitude: 38.72, Longitude: -9.14},
		LocationDescription: "Lisbon",
		CreatorObjectId:     owner,
	}
}

func TestSaleCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)
	p2 := env.createProduct(t, owner, "P2", 2)

	closeTime := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	cmd := saleCommand(owner, []string{p1, p2}, p1)
	cmd.CloseTime = &entities.Date{Time: closeTime}

	res, err := env.sales.CreateSale(ctx, cmd)
	require.NoError(t, err)
	sale := res.Result
	assert.True(t, sale.Active)
	require.Len(t, sale.Products, 2)
	assert.Equal(t, p1, sale.Products[0].Id)
	assert.Equal(t, p2, sale.Products[1].Id)
	require.NotNil(t, sale.MainProduct)
	assert.Equal(t, p1, sale.MainProduct.Id)
	require.NotNil(t, sale.User)
	assert.Equal(t, owner, sale.User.Id)
	assert.Equal(t, "Lisbon", sale.LocationDescription)

	got, err := env.sales.FindSaleById(ctx, sale.Id)
	require.NoError(t, err)
	read := got.Result
	assert.Equal(t, sale.Id, read.Id)
	assert.True(t, read.Fixed)
	assert.True(t, read.Card)
	assert.True(t, read.Active)
	require.NotNil(t, read.CloseTime)
	assert.True(t, closeTime.Equal(*read.CloseTime))
	assert.Equal(t, 38.72, read.Location.Latitude)
	assert.Equal(t, -9.14, read.Location.Longitude)
	assert.Equal(t, "Lisbon", read.LocationDescription)
	assert.Equal(t, p1, read.MainProductObjectId)
	assert.Equal(t, owner, read.UserObjectId)
	require.Len(t, read.Products, 2)
	assert.Equal(t, p1, read.Products[0].Id)
	assert.Equal(t, p2, read.Products[1].Id)
}

func decodeFilter(t *testing.T, s string) *query.FilterQuery {
	t.Helper()
	var q query.FilterQuery
	require.NoError(t, json.Unmarshal([]byte(s), &q))
	return &q
}

func TestProductFilterByPointerList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bob")
	env.createProduct(t, alice, "Widget", 10)
	env.createProduct(t, bob, "Gadget", 20)

	found, err := env.products.FindProductsByFilter(ctx, decodeFilter(t,
		`{"filter":{"user":[{"__type":"Pointer","className":"_User","objectId":"`+alice+`"}]}}`))
	require.NoError(t, err)
	require.Len(t, found.Result, 1)
	assert.Equal(t, "Widget", found.Result[0].Name)

	found, err = env.products.FindProductsByFilter(ctx, decodeFilter(t,
		`{"filter":{"user":[{"__type":"Pointer","objectId":"`+alice+`"},"`+bob+`"]}}`))
	require.NoError(t, err)
	assert.Len(t, found.Result, 2)
}

func TestSaleFilterByDateLocationAndPointers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)
	p2 := env.createProduct(t, owner, "P2", 2)

	cmd := saleCommand(owner, []string{p1, p2}, p1)
	cmd.CloseTime = &entities.Date{Time: time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)}
	cmd.Location = entities.GeoPoint{Latitude: 10.5, Longitude: 20.25}
	created, err := env.sales.CreateSale(ctx, cmd)
	require.NoError(t, err)
	_, err = env.sales.CreateSale(ctx, saleCommand(owner, []string{p2}, p2))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"close time", `{"closeTime":{"__type":"Date","iso":"2030-01-01T10:00:00.000Z"}}`, 1},
		{"other close time", `{"closeTime":{"__type":"Date","iso":"2031-01-01T10:00:00.000Z"}}`, 0},
		{"location", `{"location":{"__type":"GeoPoint","latitude":10.5,"longitude":20.25}}`, 1},
		{"location list", `{"location":[{"latitude":38.72,"longitude":-9.14},{"latitude":10.5,"longitude":20.25}]}`, 2},
		{"other location", `{"location":{"latitude":20.25,"longitude":10.5}}`, 0},
		{"main product pointers", `{"mainProduct":[{"__type":"Pointer","className":"Product","objectId":"` + p1 + `"}]}`, 1},
		{"product pointers", `{"products":[{"__type":"Pointer","className":"Product","objectId":"` + p2 + `"}]}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := env.sales.FindSalesByFilter(ctx, decodeFilter(t, `{"filter":`+tt.filter+`}`))
			if tt.want == 0 {
				requireCode(t, err, errs.CodeNotFound)
				return
			}
			require.NoError(t, err)
			require.Len(t, found.Result, tt.want)
			if tt.want == 1 {
				assert.Equal(t, created.Result.Id, found.Result[0].Id)
			}
		})
	}
}

func TestSaleCreateFailuresPersistNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)
	p2 := env.createProduct(t, owner, "P2", 2)
	p3 := env.createProduct(t, owner, "P3", 3)

	tests := []struct {
		name    string
		cmd     *command.CreateSaleCommand
		message string
	}{
		{"missing creator", saleCommand("ghost", []string{p1, p2}, p1), "User not found for ghost"},
		{"missing product", saleCommand(owner, []string{p1, "P9"}, p1), "Product was not found for P9"},
		{"no products", saleCommand(owner, nil, p1), "No products were found"},
		{"missing main product", saleCommand(owner, []string{p1, p2}, "P3"), "Main product not found for objectId P3"},
		{"main product not listed", saleCommand(owner, []string{p1, p2}, p3), "Main product not found for objectId " + p3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sales.CreateSale(ctx, tt.cmd)
			requireCode(t, err, errs.CodeNotFound)
			assert.Contains(t, err.Error(), tt.message)

			all, err := env.saleRepo.FindByFilter(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSaleCreateRejectsInvalidLocation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)

	cmd := saleCommand(owner, []string{p1}, p1)
	cmd.Location.Latitude = 91
	_, err := env.sales.CreateSale(context.Background(), cmd)
	requireCode(t, err, errs.CodeInvalidJSON)
}

func TestSaleUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)
	p2 := env.createProduct(t, owner, "P2", 2)

	created, err := env.sales.CreateSale(ctx, saleCommand(owner, []string{p1, p2}, p1))
	require.NoError(t, err)

	inactive := false
	main := entities.Ref(p2)
	updated, err := env.sales.UpdateSale(ctx, &command.UpdateSaleCommand{Sale: &entities.SalePatch{
		Id:          created.Result.Id,
		Active:      &inactive,
		MainProduct: &main,
	}})
	require.NoError(t, err)
	assert.False(t, updated.Result.Active)
	assert.Equal(t, p2, updated.Result.MainProductObjectId)
	assert.True(t, updated.Result.Fixed)
	assert.Equal(t, "Lisbon", updated.Result.LocationDescription)

	found, err := env.sales.FindSalesByFilter(ctx, &query.FilterQuery{Filter: map[string]any{"active": false}})
	require.NoError(t, err)
	assert.Len(t, found.Result, 1)

	res, err := env.sales.DeleteSale(ctx, created.Result.Id)
	require.NoError(t, err)
	assert.Equal(t, "Sale was deleted", res.Message)

	_, err = env.sales.FindSaleById(ctx, created.Result.Id)
	requireCode(t, err, errs.CodeNotFound)
	_, err = env.products.FindProductById(ctx, p1)
	assert.NoError(t, err)
}

func TestSalesByLocationRadius(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.signUp(t, "alice")
	p1 := env.createProduct(t, owner, "P1", 1)

	for desc, lng := range map[string]float64{"far": 0.5, "near": 0.1} {
		cmd := saleCommand(owner, []string{p1}, p1)
		cmd.Location = entities.GeoPoint{Latitude: 0, Longitude: lng}
		cmd.LocationDescription = desc
		_, err := env.sales.CreateSale(ctx, cmd)
		require.NoError(t, err)
	}

	res, err := env.sales.FindSalesByLocationRadius(ctx, &query.LocationRadiusQuery{Radius: 100})
	require.NoError(t, err)
	require.Len(t, res.Result, 2)
	assert.Equal(t, "near", res.Result[0].LocationDescription)
	assert.Equal(t, "far", res.Result[1].LocationDescription)

	_, err = env.sales.FindSalesByLocationRadius(ctx, &query.LocationRadiusQuery{
		Location: entities.GeoPoint{Latitude: 45, Longitude: 45},
		Radius:   10,
	})
	requireCode(t, err, errs.CodeNotFound)
	assert.Contains(t, err.Error(), `No sales were found for the 10km and location {"latitude":45,"longitude":45}`)

	_, err = env.sales.FindSalesByLocationRadius(ctx, &query.LocationRadiusQuery{Radius: -1})
	requireCode(t, err, errs.CodeInvalidQuery)
}
