package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://www.strava.com"

// Client talks to the Strava OAuth endpoints and activities API.
type Client struct {
	oauthConf  *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

type NewClientParams struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
	// BaseURL overrides the Strava API host, used in tests
	BaseURL string
}

func NewClient(params NewClientParams) *Client {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		oauthConf: &oauth2.Config{
			ClientID:     params.ClientID,
			ClientSecret: params.ClientSecret,
			RedirectURL:  params.RedirectURL,
			Scopes:       []string{"activity:read_all"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/oauth/authorize",
				TokenURL: baseURL + "/oauth/token",
			},
		},
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConf.AuthCodeURL(state)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// RefreshToken trades the refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConf.
		TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).
		Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return token, nil
}

// ListActivities fetches the athlete's activities started after the
// given instant.
func (c *Client) ListActivities(ctx context.Context, accessToken string, after time.Time) (_ []Activity, err error) {
	reqURL := fmt.Sprintf("%s/api/v3/athlete/activities", c.baseURL)
	if !after.IsZero() {
		reqURL += "?" + url.Values{"after": {strconv.FormatInt(after.Unix(), 10)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get activities: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get activities: unexpected status %d", resp.StatusCode)
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	return activities, nil
}

// Deauthorize revokes the access token on the Strava side.
func (c *Client) Deauthorize(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/oauth/deauthorize",
		nil,
	)
	if err != nil {
		return fmt.Errorf("create deauthorize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deauthorize: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deauthorize: unexpected status %d", resp.StatusCode)
	}

	return nil
}
