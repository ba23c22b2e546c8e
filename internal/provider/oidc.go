package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/greenplate/nutricoach/internal/identity"
)

// SessionHeader carries the provider-issued ID token on API requests made by
// the web client while logged in through the hosted provider.
const SessionHeader = "X-Provider-Token"

type Config struct {
	IssuerURL string
	ClientID  string
	// ProfileURL is the provider's user-profile API base; the subject id is
	// appended as a path segment.
	ProfileURL string
	// ServiceToken authenticates this backend against the profile API.
	ServiceToken string
	Timeout      time.Duration
}

// ConfigFromEnv reads provider config from env vars.
func ConfigFromEnv() Config {
	return Config{
		IssuerURL:    os.Getenv("AUTH_PROVIDER_ISSUER"),
		ClientID:     os.Getenv("AUTH_PROVIDER_CLIENT_ID"),
		ProfileURL:   os.Getenv("AUTH_PROVIDER_PROFILE_URL"),
		ServiceToken: os.Getenv("AUTH_PROVIDER_SERVICE_TOKEN"),
		Timeout:      10 * time.Second,
	}
}

// Enabled reports whether an external provider is configured at all.
func (c Config) Enabled() bool { return c.IssuerURL != "" }

// OIDC verifies provider-issued sessions and fetches account profiles.
// It implements identity.SessionVerifier and identity.ProfileAPI.
type OIDC struct {
	verifier   *oidc.IDTokenVerifier
	client     *http.Client
	profileURL string
	logger     *zap.SugaredLogger
}

func New(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (*OIDC, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, errors.New("provider config missing issuer or client id")
	}
	p, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("init oidc provider: %w", err)
	}
	verifier := p.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ServiceToken})
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = cfg.Timeout

	profileURL := cfg.ProfileURL
	if profileURL == "" {
		profileURL = strings.TrimSuffix(cfg.IssuerURL, "/") + "/api/v2/users"
	}
	return &OIDC{verifier: verifier, client: client, profileURL: profileURL, logger: logger}, nil
}

// VerifySession checks the request for a provider-issued ID token and
// returns its subject. Absent or invalid tokens both report ok=false; the
// resolver does not distinguish the two.
func (o *OIDC) VerifySession(r *http.Request) (string, bool) {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		if c, err := r.Cookie("provider_session"); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return "", false
	}
	idToken, err := o.verifier.Verify(r.Context(), raw)
	if err != nil {
		o.logger.Debugw("provider session rejected", "err", err)
		return "", false
	}
	return idToken.Subject, true
}

// FetchProfile loads the provider account's profile by subject id.
func (o *OIDC) FetchProfile(ctx context.Context, subject string) (*identity.Profile, error) {
	u := o.profileURL + "/" + url.PathEscape(subject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch: provider returned %d", resp.StatusCode)
	}

	var body struct {
		Subject    string `json:"sub"`
		UserID     string `json:"user_id"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("profile decode: %w", err)
	}
	if body.Email == "" {
		return nil, errors.New("provider profile missing email")
	}
	prof := &identity.Profile{Subject: subject, Email: strings.ToLower(body.Email)}
	if body.GivenName != "" {
		prof.FirstName = &body.GivenName
	}
	if body.FamilyName != "" {
		prof.LastName = &body.FamilyName
	}
	return prof, nil
}
