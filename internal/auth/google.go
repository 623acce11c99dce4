package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfile is the subset of the Google account used to find or create
// a user.
type GoogleProfile struct {
	ProviderID string
	Email      string
	Username   string
}

// GoogleOAuth runs the authorization code flow against Google.
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleOAuth(clientID, clientSecret, callbackURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a token and loads the profile.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, errors.Annotate(err, "exchanging google authorization code")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return GoogleProfile{}, errors.Trace(err)
	}

	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return GoogleProfile{}, errors.Annotate(err, "fetching google profile")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleProfile{}, errors.Errorf("google profile request failed: %s", resp.Status)
	}

	var info struct {
		Sub       string `json:"sub"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		GivenName string `json:"given_name"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleProfile{}, errors.Annotate(err, "decoding google profile")
	}

	return profileFromUserInfo(info.Sub, info.Email, info.Name, info.GivenName)
}

func profileFromUserInfo(sub, email, name, givenName string) (GoogleProfile, error) {
	if sub == "" || email == "" {
		return GoogleProfile{}, errors.NotValidf("google profile without subject or email")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	username := strings.TrimSpace(name)
	if username == "" {
		username = strings.TrimSpace(givenName)
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	return GoogleProfile{
		ProviderID: sub,
		Email:      email,
		Username:   username,
	}, nil
}
