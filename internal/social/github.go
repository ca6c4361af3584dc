package social

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"authgate/internal/models"
)

const githubUserURL = "https://api.github.com/user"

type GitHub struct {
	conf *oauth2.Config
}

func NewGitHub(clientID, clientSecret, callbackURL string) *GitHub {
	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user"},
		},
	}
}

func (g *GitHub) Name() string {
	return "github"
}

func (g *GitHub) LoginURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

func (g *GitHub) Authenticate(ctx context.Context, code string) (*models.Principal, error) {
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange failed: %w", err)
	}

	resp, err := g.conf.Client(ctx, token).Get(githubUserURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github user endpoint returned %d", resp.StatusCode)
	}

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode github user: %w", err)
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &models.Principal{
		ID:          "github:" + strconv.FormatInt(user.ID, 10),
		DisplayName: displayName,
	}, nil
}
