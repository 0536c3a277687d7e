package api

import (
	"context"
	"net/http"

	"okhouse/internal/domain"
	"okhouse/internal/models"
)

// AuthClient is the admin authentication API.
type AuthClient struct {
	gw *Gateway
}

func NewAuthClient(gw *Gateway) *AuthClient {
	return &AuthClient{gw: gw}
}

var _ domain.AuthAPI = (*AuthClient)(nil)

// VerifyPhone logs in by phone. The backend also sets the refresh cookie.
func (c *AuthClient) VerifyPhone(ctx context.Context, phone string) (*domain.TokenGrant, error) {
	var grant domain.TokenGrant
	err := c.gw.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   PathAdminVerifyPhone,
		Body:   map[string]string{"phone": phone},
	}, &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// Refresh trades the refresh cookie for a new access token.
func (c *AuthClient) Refresh(ctx context.Context) (*domain.TokenGrant, error) {
	var grant domain.TokenGrant
	if err := c.gw.Do(ctx, Request{Method: http.MethodPost, Path: PathAdminRefresh}, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (c *AuthClient) WhoAmI(ctx context.Context, token string) (*models.AdminIdentity, error) {
	var identity models.AdminIdentity
	if err := c.gw.Do(ctx, Request{Method: http.MethodGet, Path: PathAdminMe, Token: token}, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Logout revokes token and drops the refresh cookie. An empty token still
// clears the cookie.
func (c *AuthClient) Logout(ctx context.Context, token string) error {
	_, err := c.gw.Send(ctx, Request{Method: http.MethodPost, Path: PathAdminLogout, Token: token, Ungated: true})
	return err
}
