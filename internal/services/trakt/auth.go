package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TokenStore stores and retrieves Trakt OAuth tokens
type TokenStore interface {
	GetToken() (*Token, error)
	SaveToken(token *Token) error
}

// Token is a Trakt OAuth token pair
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// FileTokenStore keeps the token in a JSON file
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a file-based token store
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	return &FileTokenStore{path: path}, nil
}

// GetToken reads the token from disk
func (s *FileTokenStore) GetToken() (*Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("token file not found")
		}
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// SaveToken writes the token to disk
func (s *FileTokenStore) SaveToken(token *Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// GetToken returns the currently stored token
func (c *Client) GetToken() (*Token, error) {
	return c.tokenStore.GetToken()
}

// Authenticate runs the Trakt device authentication flow: request a device
// code, show it to the operator, then poll until the code is confirmed.
func (c *Client) Authenticate(ctx context.Context) error {
	var device deviceCodeResponse
	codeReq := map[string]string{"client_id": c.clientID}
	if err := c.doRequest(ctx, "POST", "/oauth/device/code", codeReq, &device); err != nil {
		return fmt.Errorf("failed to get device code: %w", err)
	}

	c.logger.Infof("Please visit %s and enter code: %s", device.VerificationURL, device.UserCode)
	fmt.Printf("\nPlease visit %s and enter code: %s\n\n", device.VerificationURL, device.UserCode)

	return c.pollForToken(ctx, device)
}

func (c *Client) pollForToken(ctx context.Context, device deviceCodeResponse) error {
	deadline := time.Now().Add(time.Duration(device.ExpiresIn) * time.Second)
	ticker := time.NewTicker(time.Duration(device.Interval) * time.Second)
	defer ticker.Stop()

	tokenReq := map[string]string{
		"code":          device.DeviceCode,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("authentication timeout")
			}

			var resp tokenResponse
			if err := c.doRequest(ctx, "POST", "/oauth/device/token", tokenReq, &resp); err != nil {
				// The endpoint answers 400 until the user confirms the code
				c.logger.Debug("Waiting for user authorization...")
				continue
			}

			if err := c.tokenStore.SaveToken(newToken(resp)); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			c.logger.Info("Authentication successful!")
			return nil
		}
	}
}

// RefreshToken exchanges the refresh token for a fresh access token
func (c *Client) RefreshToken(ctx context.Context) error {
	token, err := c.tokenStore.GetToken()
	if err != nil {
		return fmt.Errorf("no token to refresh: %w", err)
	}

	refreshReq := map[string]string{
		"refresh_token": token.RefreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "refresh_token",
	}

	var resp tokenResponse
	if err := c.doRequest(ctx, "POST", "/oauth/token", refreshReq, &resp); err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := c.tokenStore.SaveToken(newToken(resp)); err != nil {
		return fmt.Errorf("failed to save refreshed token: %w", err)
	}

	c.logger.Info("Token refreshed successfully")
	return nil
}

func newToken(resp tokenResponse) *Token {
	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}
