package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var dropboxEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

// OAuthCheck exchanges a stored refresh token for an access token and then
// calls URL with it. A failed refresh counts as rejected credentials.
type OAuthCheck struct {
	Client            *http.Client
	Endpoint          oauth2.Endpoint
	ClientIDField     string
	ClientSecretField string
	RefreshTokenField string
	Method            string
	URL               string
}

func NewGoogleDriveCheck(client *http.Client) *OAuthCheck {
	return &OAuthCheck{
		Client:            client,
		Endpoint:          google.Endpoint,
		ClientIDField:     "clientId",
		ClientSecretField: "clientSecret",
		RefreshTokenField: "refreshToken",
		URL:               "https://www.googleapis.com/drive/v3/about?fields=user",
	}
}

func NewDropboxCheck(client *http.Client) *OAuthCheck {
	return &OAuthCheck{
		Client:            client,
		Endpoint:          dropboxEndpoint,
		ClientIDField:     "appKey",
		ClientSecretField: "appSecret",
		RefreshTokenField: "refreshToken",
		Method:            http.MethodPost,
		URL:               "https://api.dropboxapi.com/2/users/get_current_account",
	}
}

func (c *OAuthCheck) Check(ctx context.Context, fields map[string]string) (*Result, error) {
	refresh := strings.TrimSpace(fields[c.RefreshTokenField])
	if refresh == "" {
		return nil, fmt.Errorf("missing %s", c.RefreshTokenField)
	}

	if c.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.Client)
	}

	cfg := &oauth2.Config{
		ClientID:     fields[c.ClientIDField],
		ClientSecret: fields[c.ClientSecretField],
		Endpoint:     c.Endpoint,
	}

	method := c.Method
	if method == "" {
		method = http.MethodGet
	}
	res := &Result{Endpoint: c.URL, Method: method}
	start := time.Now()

	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh})
	if _, err := ts.Token(); err != nil {
		res.Latency = time.Since(start)
		res.Message = fmt.Sprintf("token refresh failed: %v", err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			res.StatusCode = re.Response.StatusCode
		}
		return res, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := oauth2.NewClient(ctx, ts).Do(req)
	if err != nil {
		res.Latency = time.Since(start)
		res.Message = fmt.Sprintf("connection failed: %v", err)
		return res, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return classify(res, resp.StatusCode, start), nil
}
