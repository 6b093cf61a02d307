// Package google wraps Drive, Gmail and Calendar behind a single OAuth2 grant
// whose token is kept in the store.
package google

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var ErrNotAuthorized = errors.New("google not authorized")

var Scopes = []string{
	drive.DriveScope,
	calendar.CalendarReadonlyScope,
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
}

var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Client talks to Google on behalf of the single authorized user.
type Client struct {
	oauth   *oauth2.Config
	store   storage.Store
	dataDir string
	// state is sent through the consent screen and must come back unchanged.
	state string

	// serviceOptions are appended to every service constructor.
	serviceOptions []option.ClientOption
}

func New(cfg config.GoogleConfig, store storage.Store, dataDir string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     Endpoint,
		},
		store:   store,
		dataDir: dataDir,
		state:   uuid.NewString(),
	}
}

// Enabled reports whether OAuth client credentials are configured.
func (c *Client) Enabled() bool {
	return c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// AuthURL returns the consent URL requesting offline access.
func (c *Client) AuthURL() string {
	return c.oauth.AuthCodeURL(c.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ValidState reports whether a callback state matches the one AuthURL issued.
func (c *Client) ValidState(state string) bool {
	return state != "" && subtle.ConstantTimeCompare([]byte(state), []byte(c.state)) == 1
}

// Exchange trades an authorization code for a token and stores it.
func (c *Client) Exchange(ctx context.Context, code string) error {
	if !c.Enabled() {
		return ErrNotAuthorized
	}
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := c.store.Set(ctx, storage.DocGoogleTokens, tok); err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}
	log.Println("Google: authorization complete")
	return nil
}

func (c *Client) loadToken(ctx context.Context) (*oauth2.Token, error) {
	var tok oauth2.Token
	err := c.store.Get(ctx, storage.DocGoogleTokens, &tok)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load google token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNotAuthorized
	}
	return &tok, nil
}

// Authorized reports whether a token is stored.
func (c *Client) Authorized(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	_, err := c.loadToken(ctx)
	return err == nil
}

// persistingSource saves refreshed tokens back to the store.
type persistingSource struct {
	base  oauth2.TokenSource
	store storage.Store

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Set(context.Background(), storage.DocGoogleTokens, tok); err != nil {
			log.Printf("Google: failed to persist refreshed token: %v", err)
		}
	}
	return tok, nil
}

func (c *Client) options(ctx context.Context) ([]option.ClientOption, error) {
	if !c.Enabled() {
		return nil, ErrNotAuthorized
	}
	tok, err := c.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	ts := &persistingSource{
		base:  c.oauth.TokenSource(context.Background(), tok),
		store: c.store,
		last:  tok.AccessToken,
	}
	opts := []option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(tok, ts))}
	return append(opts, c.serviceOptions...), nil
}

func (c *Client) driveService(ctx context.Context) (*drive.Service, error) {
	opts, err := c.options(ctx)
	if err != nil {
		return nil, err
	}
	return drive.NewService(ctx, opts...)
}

func (c *Client) gmailService(ctx context.Context) (*gmail.Service, error) {
	opts, err := c.options(ctx)
	if err != nil {
		return nil, err
	}
	return gmail.NewService(ctx, opts...)
}

func (c *Client) calendarService(ctx context.Context) (*calendar.Service, error) {
	opts, err := c.options(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.NewService(ctx, opts...)
}
