package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

// HTTPClient validates bearer tokens against the platform auth service over
// its internal HTTP surface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type validateTokenResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Valid  bool   `json:"valid"`
}

func (c *HTTPClient) ValidateToken(ctx context.Context, token string) (ports.AuthClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/v1/tokens/validate", nil)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.client.Do(req)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: auth service: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	var body validateTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.AuthClaims{}, err
	}
	return ports.AuthClaims{
		UserID: body.UserID,
		Email:  body.Email,
		Role:   body.Role,
		Valid:  body.Valid,
	}, nil
}

type userIdentityResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func (c *HTTPClient) GetUserIdentity(ctx context.Context, userID uuid.UUID) (domain.UserIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/v1/users/"+userID.String(), nil)
	if err != nil {
		return domain.UserIdentity{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.UserIdentity{}, fmt.Errorf("%w: auth service: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.UserIdentity{}, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.UserIdentity{}, fmt.Errorf("%w: auth service status %d", domain.ErrDependencyUnavailable, resp.StatusCode)
	}
	var body userIdentityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.UserIdentity{}, err
	}
	identity := domain.UserIdentity{Email: body.Email, Role: body.Role, Status: body.Status}
	if parsed, parseErr := uuid.Parse(body.UserID); parseErr == nil {
		identity.UserID = parsed
	} else {
		identity.UserID = userID
	}
	return identity, nil
}

var _ ports.AuthClient = (*HTTPClient)(nil)
