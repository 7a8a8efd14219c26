package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserInfo contains the user's basic profile information from Google.
type UserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// NewHTTPClient returns an OAuth2-authenticated HTTP client drawing
// tokens from ts. A positive timeout caps each request end to end; zero
// leaves requests uncapped.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource, timeout time.Duration) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = timeout
	return client
}

// NewGmailService creates a Gmail API service over the HTTP client.
func NewGmailService(ctx context.Context, client *http.Client) (*gmail.Service, error) {
	return gmail.NewService(ctx, option.WithHTTPClient(client))
}

// NewCalendarService creates a Google Calendar API service over the HTTP client.
func NewCalendarService(ctx context.Context, client *http.Client) (*calendar.Service, error) {
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

// NewDriveService creates a Google Drive API service over the HTTP client.
func NewDriveService(ctx context.Context, client *http.Client) (*drive.Service, error) {
	return drive.NewService(ctx, option.WithHTTPClient(client))
}

// NewSheetsService creates a Google Sheets API service over the HTTP client.
func NewSheetsService(ctx context.Context, client *http.Client) (*sheets.Service, error) {
	return sheets.NewService(ctx, option.WithHTTPClient(client))
}

// GetUserInfo fetches the user's profile information using an access
// token. The email address serves as the account identifier.
func GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &userInfo, nil
}
