package portal

import (
	"context"
	"net/http"

	"devisportal/internal/domain/auth"
)

// Login signs a client in and stores the token pair in the session.
func (c *Client) Login(ctx context.Context, email, password string) (State, error) {
	return c.login(ctx, "/client/token/", email, password)
}

func (c *Client) LoginAdmin(ctx context.Context, email, password string) (State, error) {
	return c.login(ctx, "/token/", email, password)
}

func (c *Client) login(ctx context.Context, path, email, password string) (State, error) {
	if email == "" || password == "" {
		return State{}, &FieldError{Field: "email", Reason: "email and password are required"}
	}
	cl, err := jsonCall(http.MethodPost, path, auth.LoginRequest{Email: email, Password: password}, false)
	if err != nil {
		return State{}, err
	}
	var pair auth.TokenPair
	if err := c.doJSON(ctx, cl, &pair); err != nil {
		return State{}, err
	}
	return c.session.Dispatch(LoginAction(pair.Access, pair.Refresh)), nil
}

func (c *Client) Logout() {
	c.session.Dispatch(LogoutAction())
}

// Refresh trades the refresh token for a new access token. A rejected refresh
// signs the session out.
func (c *Client) Refresh(ctx context.Context) (State, error) {
	st := c.session.State()
	if st.Refresh == "" {
		return st, ErrUnauthenticated
	}
	cl, err := jsonCall(http.MethodPost, "/token/refresh/", auth.RefreshRequest{Refresh: st.Refresh}, false)
	if err != nil {
		return st, err
	}
	var out auth.TokenPair
	if err := c.doJSON(ctx, cl, &out); err != nil {
		if isAPIStatus(err, http.StatusUnauthorized) {
			c.session.Dispatch(LogoutAction())
			return State{}, ErrUnauthenticated
		}
		return st, err
	}
	return c.session.Dispatch(RefreshAction(out.Access, out.Refresh)), nil
}

func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	cl, err := jsonCall(http.MethodPost, "/register/", req, false)
	if err != nil {
		return nil, err
	}
	var out auth.RegisterResponse
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	cl, err := jsonCall(http.MethodPost, "/password-reset/", auth.PasswordResetRequest{Email: email}, false)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, cl, nil)
}
