package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/service"
	"collab-notes-server/pkg/jwt"
	"collab-notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService  *service.UserService
	validate     *validator.Validate
	tokenSecret  string
	tokenExpires time.Duration
}

func NewUserHandler(userService *service.UserService, tokenSecret string, tokenExpires time.Duration) *UserHandler {
	return &UserHandler{
		userService:  userService,
		validate:     validator.New(),
		tokenSecret:  tokenSecret,
		tokenExpires: tokenExpires,
	}
}

// Login returns the user registered under the supplied username, creating it
// on first sight. The session token in the response is consumed by the
// websocket handshake.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "Username is required")
		return
	}

	user, err := h.userService.LoginOrCreate(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, err, "Failed to log in")
		return
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, h.tokenExpires, h.tokenSecret)
	if err != nil {
		response.InternalError(w, "Failed to issue session token")
		return
	}

	response.JSON(w, http.StatusOK, &domain.LoginResponse{
		User:  &domain.UserRef{ID: user.ID, Username: user.Username},
		Token: token,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list users")
		return
	}

	response.JSON(w, http.StatusOK, users)
}
