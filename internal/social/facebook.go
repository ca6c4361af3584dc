package social

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"authgate/internal/models"
)

const facebookMeURL = "https://graph.facebook.com/me?fields=id,name"

type Facebook struct {
	conf *oauth2.Config
}

func NewFacebook(clientID, clientSecret, callbackURL string) *Facebook {
	return &Facebook{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"public_profile"},
		},
	}
}

func (f *Facebook) Name() string {
	return "facebook"
}

func (f *Facebook) LoginURL(state string) string {
	return f.conf.AuthCodeURL(state)
}

func (f *Facebook) Authenticate(ctx context.Context, code string) (*models.Principal, error) {
	token, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("facebook code exchange failed: %w", err)
	}

	resp, err := f.conf.Client(ctx, token).Get(facebookMeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facebook profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("facebook profile endpoint returned %d", resp.StatusCode)
	}

	var profile struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode facebook profile: %w", err)
	}

	return &models.Principal{
		ID:          "facebook:" + profile.ID,
		DisplayName: profile.Name,
	}, nil
}
