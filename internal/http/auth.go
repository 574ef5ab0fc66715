package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Atchyuteswar/ZenReader/internal/auth"
)

// AuthController exposes signup, login, federated login and token
// introspection endpoints.
type AuthController struct {
	service *auth.Service
}

func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{service: service}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

func (controller *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Email and password required")
		return
	}

	result, err := controller.service.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailRequired),
			errors.Is(err, auth.ErrEmailInvalid),
			errors.Is(err, auth.ErrDuplicateEmail),
			errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "signup")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (controller *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Email and password required")
		return
	}

	result, err := controller.service.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailRequired),
			errors.Is(err, auth.ErrInvalidCredentials),
			errors.Is(err, auth.ErrGoogleOnlyAccount):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "login")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (controller *AuthController) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Credential == "" {
		respondBadRequest(c, "Credential required")
		return
	}

	result, err := controller.service.FederatedLogin(req.Credential)
	if err != nil {
		// Verification failures are client errors; storage failures are not.
		if errors.Is(err, auth.ErrCredentialRequired) || errors.Is(err, auth.ErrCredentialInvalid) {
			respondBadRequest(c, "Invalid credential")
			return
		}
		respondInternalError(c, err, "google login")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (controller *AuthController) Me(c *gin.Context) {
	claims := &auth.Claims{}
	claims.Subject = GetUserID(c)

	user, err := controller.service.WhoAmI(claims)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		respondInternalError(c, err, "me")
		return
	}

	c.JSON(http.StatusOK, user)
}
