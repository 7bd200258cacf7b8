package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// AuthAPI wraps the /auth endpoints
type AuthAPI struct {
	gw Gateway
}

// NewAuthAPI creates an AuthAPI
func NewAuthAPI(gw Gateway) *AuthAPI {
	return &AuthAPI{gw: gw}
}

// Login signs in through the endpoint for userType. A 401 here means bad
// credentials, so it does not trigger the session-expired broadcast.
func (a *AuthAPI) Login(ctx context.Context, userType UserType, c Credentials) (LoginResponse, error) {
	if !userType.Valid() {
		return LoginResponse{}, fmt.Errorf("unknown user type %q", userType)
	}

	body := map[string]string{"password": c.Password}
	switch userType {
	case UserTeacher:
		body["email"] = c.Login
	case UserParent:
		body["phone"] = c.Login
	case UserStudent:
		body["studentId"] = c.Login
	}

	return call[LoginResponse](ctx, a.gw, apiclient.Request{
		Method:           http.MethodPost,
		Path:             join("auth", string(userType), "login"),
		Body:             body,
		SkipAuthRedirect: true,
	})
}

// ViewAsStudent issues a student token to a staff member
func (a *AuthAPI) ViewAsStudent(ctx context.Context, studentID string) (LoginResponse, error) {
	return call[LoginResponse](ctx, a.gw, post(join("auth", "view-as-student", studentID), nil))
}

// Me returns the user the current token belongs to
func (a *AuthAPI) Me(ctx context.Context) (User, error) {
	return call[User](ctx, a.gw, get("/auth/me", nil))
}
