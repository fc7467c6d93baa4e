package gmail

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is called when Google hands back a rotated token.
type TokenUpdateFunc func(token *oauth2.Token) error

// Service builds per-user Gmail clients from stored refresh tokens.
type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && t.RefreshToken != "" && s.current.RefreshToken != t.RefreshToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] failed to persist rotated token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// NewClient creates a Gmail client for a user. The refresh token only lives
// in the returned client's token source.
func (s *Service) NewClient(ctx context.Context, refreshToken string, onTokenRefresh TokenUpdateFunc) (*Client, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(), // force a refresh on first use
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope, gmail.GmailSettingsBasicScope},
	}

	wrapped := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, wrapped)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return &Client{srv: srv, user: "me"}, nil
}
