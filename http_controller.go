package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// APIControllerRoutes holds the route paths so embedders can move the
// surface without touching handler code.
type APIControllerRoutes struct {
	Home       string
	Signup     string
	Login      string
	Logout     string
	SubUser    string
	SubUsers   string
	SubUserOne string
}

type APIController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auther     *Auther
	ContextKey string
	Routes     *APIControllerRoutes
}

type APIControllerOption func(*APIController) *APIController

func WithControllerLogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Auther = auther
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger:     defLogger{},
		ContextKey: "account",
		Routes: &APIControllerRoutes{
			Home:       "/",
			Signup:     "/signup",
			Login:      "/login",
			Logout:     "/logout",
			SubUser:    "/dashboard/user",
			SubUsers:   "/dashboard/users",
			SubUserOne: "/dashboard/user/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	return c
}

func (a *APIController) Home(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{
		"routes": a.Routes,
	})
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *APIController) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	var account *Account
	req := RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(record *Account) {
			account = record
		},
	}

	registerAccount := NewRegisterAccountHandler(a.Repo)
	if err := registerAccount.Execute(c.UserContext(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Signup successful",
		"user":    account,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *APIController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// LogoutPost confirms the logout but keeps no server side session state.
// Bearer tokens stay valid until expiry, clients drop them locally.
func (a *APIController) LogoutPost(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Logout successful. Please remove token from client.",
	})
}

// CreateSubUserRequest payload
type CreateSubUserRequest struct {
	Name       string `form:"name" json:"name"`
	Email      string `form:"email" json:"email"`
	Department string `form:"department" json:"department"`
}

// Validate will run validation rules
func (r CreateSubUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *APIController) SubUserCreate(c *fiber.Ctx) error {
	accountID, err := a.claimsAccountID(c)
	if err != nil {
		return err
	}

	payload := new(CreateSubUserRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("sub user parse payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sub user validate payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	record := &SubUser{
		Name:       payload.Name,
		Email:      payload.Email,
		Department: payload.Department,
		AccountID:  accountID,
	}

	record, err = a.Repo.SubUsers().CreateForAccount(c.UserContext(), record)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (a *APIController) SubUserList(c *fiber.Ctx) error {
	accountID, err := a.claimsAccountID(c)
	if err != nil {
		return err
	}

	records, err := a.Repo.SubUsers().ListForAccount(c.UserContext(), accountID)
	if err != nil {
		return err
	}

	return c.JSON(records)
}

// UpdateSubUserRequest payload. Pointer fields distinguish an omitted
// attribute from an explicit empty string, so partial updates keep the
// attributes they do not mention.
type UpdateSubUserRequest struct {
	Name       *string `form:"name" json:"name"`
	Email      *string `form:"email" json:"email"`
	Department *string `form:"department" json:"department"`
}

// Validate will run validation rules
func (r UpdateSubUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			is.Email,
		),
	)
}

func (a *APIController) SubUserUpdate(c *fiber.Ctx) error {
	accountID, err := a.claimsAccountID(c)
	if err != nil {
		return err
	}

	id, err := a.paramID(c)
	if err != nil {
		return err
	}

	payload := new(UpdateSubUserRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("sub user parse payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sub user validate payload: ", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	patch := SubUserPatch{
		Name:       payload.Name,
		Email:      payload.Email,
		Department: payload.Department,
	}

	record, err := a.Repo.SubUsers().UpdateForAccount(c.UserContext(), id, accountID, patch)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User updated",
		"updated": record,
	})
}

func (a *APIController) SubUserDelete(c *fiber.Ctx) error {
	accountID, err := a.claimsAccountID(c)
	if err != nil {
		return err
	}

	id, err := a.paramID(c)
	if err != nil {
		return err
	}

	if err := a.Repo.SubUsers().DeleteForAccount(c.UserContext(), id, accountID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User deleted",
	})
}

func (a *APIController) claimsAccountID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := GetFiberClaims(c, a.ContextKey)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "No token")
	}

	accountID, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid token").
			WithCode(goerrors.CodeUnauthorized)
	}

	return accountID, nil
}

// paramID treats unparseable ids like ids that match no record: the caller
// gets the same not found response either way.
func (a *APIController) paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, subUserNotFound(uuid.Nil, uuid.Nil)
	}
	return id, nil
}
