package authController

import (
	"context"
	"fmt"
	"time"

	"gymbro/internal/database"
	"gymbro/internal/repositories"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"
)

// AuthController handles authentication business logic
type AuthController struct {
	identityService *services.IdentityService
	userRepo        repositories.UserRepository
	db              database.DB
	log             logger.Logger
}

type AuthControllerInterface interface {
	GetAuthConfig() *AuthConfigResponse
	Login(ctx context.Context, idToken string) (*LoginResult, error)
	GetCurrentUser(ctx context.Context, oidcUserID string) (*User, error)
	UpdatePushToken(ctx context.Context, user *User, pushToken *string) error
	Logout(ctx context.Context, user *User) error
}

type AuthConfigResponse struct {
	Configured bool   `json:"configured"`
	IssuerURL  string `json:"issuerUrl,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
}

type LoginResult struct {
	User UserProfile `json:"user"`
}

func New(
	identityService *services.IdentityService,
	userRepo repositories.UserRepository,
	db database.DB,
) AuthControllerInterface {
	return &AuthController{
		identityService: identityService,
		userRepo:        userRepo,
		db:              db,
		log:             logger.New("authController"),
	}
}

// GetAuthConfig returns the OIDC configuration for client consumption
func (c *AuthController) GetAuthConfig() *AuthConfigResponse {
	config := c.identityService.GetConfig()
	return &AuthConfigResponse{
		Configured: true,
		IssuerURL:  config.IssuerURL,
		ClientID:   config.ClientID,
	}
}

// Login validates the client-supplied ID token and finds or creates the
// matching local user.
func (c *AuthController) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	log := c.log.Function("Login")

	if idToken == "" {
		return nil, fmt.Errorf("id token is required")
	}

	tokenInfo, err := c.identityService.ValidateIDToken(ctx, idToken)
	if err != nil || !tokenInfo.Valid {
		log.Info("token validation failed", "error", err)
		return nil, fmt.Errorf("invalid token")
	}

	displayName := tokenInfo.Name
	if displayName == "" {
		displayName = tokenInfo.PreferredName
	}

	now := time.Now()
	provider := "oidc"
	user := &User{
		OIDCUserID:   tokenInfo.UserID,
		DisplayName:  displayName,
		FirstName:    tokenInfo.GivenName,
		LastName:     tokenInfo.FamilyName,
		Email:        &tokenInfo.Email,
		OIDCProvider: &provider,
		IsActive:     true,
		LastLoginAt:  &now,
	}

	user, err = c.userRepo.FindOrCreateOIDCUser(ctx, user)
	if err != nil {
		log.Info("failed to find or create user", "error", err, "oidcUserID", tokenInfo.UserID)
		return nil, fmt.Errorf("failed to create user session")
	}

	log.Info("login successful", "userID", user.ID, "oidcUserID", user.OIDCUserID)

	return &LoginResult{User: user.ToProfile()}, nil
}

// GetCurrentUser returns the local user for the authenticated OIDC subject
func (c *AuthController) GetCurrentUser(ctx context.Context, oidcUserID string) (*User, error) {
	log := c.log.Function("GetCurrentUser")

	user, err := c.userRepo.GetByOIDCUserID(ctx, oidcUserID)
	if err != nil {
		return nil, log.Err("failed to get current user", err, "oidcUserID", oidcUserID)
	}

	return user, nil
}

// Logout drops the server-side caches for the user. Tokens are held by the
// client and expire on their own; there is no session row to revoke.
func (c *AuthController) Logout(ctx context.Context, user *User) error {
	log := c.log.Function("Logout")

	c.userRepo.ClearCache(ctx, user)

	log.Info("logout complete", "userID", user.ID)
	return nil
}

// UpdatePushToken stores or clears the user's Expo push token
func (c *AuthController) UpdatePushToken(
	ctx context.Context,
	user *User,
	pushToken *string,
) error {
	return c.userRepo.UpdatePushToken(ctx, user, pushToken)
}
