// Package zoomphone is a minimal client for the three Zoom Phone API calls
// the archival pipeline needs: the account-credentials token exchange, the
// phone-user listing and the call-log recording lookup.
package zoomphone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DirectoryRule maps phone-user emails to archive initials. Users whose email
// starts with EmailPrefix get the middle portion (prefix and suffix stripped)
// upper-cased; SpecialEmail maps to SpecialInitials; everyone else stays
// unmapped.
type DirectoryRule struct {
	EmailPrefix     string
	EmailSuffix     string
	SpecialEmail    string
	SpecialInitials string
}

// Metadata is the call-log recording lookup result.
type Metadata struct {
	DateTime   time.Time
	CallerName string
	CalleeName string
	FileURL    string
}

// Client calls the Zoom Phone API. AuthBaseURL and APIBaseURL are separate
// because the token endpoint lives on the marketing host, not the API host.
type Client struct {
	HTTPClient  *http.Client
	AuthBaseURL string
	APIBaseURL  string

	accountID    string
	clientID     string
	clientSecret string
	rule         DirectoryRule
}

func New(accountID, clientID, clientSecret string, rule DirectoryRule) *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		AuthBaseURL:  "https://zoom.us",
		APIBaseURL:   "https://api.zoom.us/v2",
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		rule:         rule,
	}
}

// Token exchanges the account credentials for a bearer access token.
func (c *Client) Token(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/oauth/token?grant_type=account_credentials&account_id=%s",
		strings.TrimRight(c.AuthBaseURL, "/"), url.QueryEscape(c.accountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	var reply struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &reply); err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if reply.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}
	return reply.AccessToken, nil
}

// UserDirectory lists all phone users and builds the extension-to-initials
// mapping. The mapping is rebuilt for every job; directory membership changes
// between calls.
func (c *Client) UserDirectory(ctx context.Context, token string) (map[string]string, error) {
	req, err := c.apiRequest(ctx, token, "/phone/users")
	if err != nil {
		return nil, err
	}

	var reply struct {
		Users []struct {
			Email           string      `json:"email"`
			ExtensionNumber json.Number `json:"extension_number"`
		} `json:"users"`
	}
	if err := c.do(req, &reply); err != nil {
		return nil, fmt.Errorf("list phone users: %w", err)
	}

	dir := make(map[string]string, len(reply.Users))
	for _, user := range reply.Users {
		ext := user.ExtensionNumber.String()
		switch {
		case strings.HasPrefix(user.Email, c.rule.EmailPrefix) && c.rule.EmailPrefix != "":
			initials := strings.TrimPrefix(user.Email, c.rule.EmailPrefix)
			initials = strings.TrimSuffix(initials, c.rule.EmailSuffix)
			dir[ext] = strings.ToUpper(initials)
		case user.Email == c.rule.SpecialEmail && c.rule.SpecialEmail != "":
			dir[ext] = c.rule.SpecialInitials
		}
	}
	return dir, nil
}

// Recording fetches the recording metadata for one call leg.
func (c *Client) Recording(ctx context.Context, token, callID string) (Metadata, error) {
	req, err := c.apiRequest(ctx, token, "/phone/call_logs/"+url.PathEscape(callID)+"/recordings")
	if err != nil {
		return Metadata{}, err
	}

	var reply struct {
		DateTime   string `json:"date_time"`
		CallerName string `json:"caller_name"`
		CalleeName string `json:"callee_name"`
		FileURL    string `json:"file_url"`
	}
	if err := c.do(req, &reply); err != nil {
		return Metadata{}, fmt.Errorf("recording lookup for call %s: %w", callID, err)
	}

	meta := Metadata{
		CallerName: reply.CallerName,
		CalleeName: reply.CalleeName,
		FileURL:    reply.FileURL,
	}
	if reply.DateTime != "" {
		when, err := time.Parse(time.RFC3339, reply.DateTime)
		if err != nil {
			return Metadata{}, fmt.Errorf("recording lookup for call %s: bad date_time %q: %w", callID, reply.DateTime, err)
		}
		meta.DateTime = when
	}
	return meta, nil
}

func (c *Client) apiRequest(ctx context.Context, token, path string) (*http.Request, error) {
	endpoint := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
