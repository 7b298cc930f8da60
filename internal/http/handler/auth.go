package handler

import (
	"github.com/gofiber/fiber/v2"

	"channelapi/internal/http/middleware"
	"channelapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      service.RegisterInput  true  "account"
// @Success  201   {object}  service.AuthResult
// @Failure  400   {object}  errorPayload
// @Router   /api/auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if in.Email == "" || in.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "email and password are required")
		}
		res, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// Login godoc
// @Summary  Exchange credentials for an access token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      loginRequest  true  "credentials"
// @Success  200   {object}  service.AuthResult
// @Failure  401   {object}  errorPayload
// @Router   /api/auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in loginRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if in.Email == "" || in.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "email and password are required")
		}
		res, err := svc.Login(c.UserContext(), in.Email, in.Password)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(res)
	}
}

// Me godoc
// @Summary   Current user
// @Tags      auth
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  model.User
// @Failure   401  {object}  errorPayload
// @Router    /api/auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(u)
	}
}
