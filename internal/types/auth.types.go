package types

// TokenInfo carries the validated claims extracted from an OIDC ID token.
type TokenInfo struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	GivenName     string `json:"givenName"`
	FamilyName    string `json:"familyName"`
	PreferredName string `json:"preferredName"`
	EmailVerified bool   `json:"emailVerified"`
	Valid         bool   `json:"valid"`
}
