package easee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"
)

const (
	DefaultTokensCacheKey = "easee.auth.tokens"

	// DefaultRefreshedTokenLifetime bounds how long a refreshed pair stays
	// cached so a stale refresh token eventually forces a new login.
	DefaultRefreshedTokenLifetime = 24 * time.Hour

	redacted = "[FILTERED]"
)

// Credentials are the account login of the Easee cloud. They are never
// printed.
type Credentials struct {
	UserName string
	Password string
}

func (c Credentials) String() string {
	return fmt.Sprintf("{UserName:%s Password:%s}", redacted, redacted)
}

func (c Credentials) GoString() string {
	return fmt.Sprintf("easee.Credentials{UserName:%q, Password:%q}", redacted, redacted)
}

func (c Credentials) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"userName": redacted, "password": redacted})
}

type TokenPair struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type loginBody struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type refreshBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthenticatorConfig struct {
	Credentials Credentials
	BaseURL     string
	Transport   Transport
	TokenStore  TokenStore
	Encryptor   Encryptor
	// CacheKey namespaces the token pair inside the TokenStore.
	CacheKey               string
	RefreshedTokenLifetime time.Duration
	Logger                 *log.Logger
}

// Authenticator obtains, caches and refreshes the token pair. All token
// state lives in the TokenStore.
type Authenticator struct {
	credentials     Credentials
	baseURL         string
	transport       Transport
	store           TokenStore
	encryptor       Encryptor
	cacheKey        string
	refreshedExpiry time.Duration
	logger          *log.Logger
}

func NewAuthenticator(config AuthenticatorConfig) *Authenticator {
	a := &Authenticator{
		credentials:     config.Credentials,
		baseURL:         config.BaseURL,
		transport:       config.Transport,
		store:           config.TokenStore,
		encryptor:       config.Encryptor,
		cacheKey:        config.CacheKey,
		refreshedExpiry: config.RefreshedTokenLifetime,
		logger:          config.Logger,
	}
	if a.encryptor == nil {
		a.encryptor = NullEncryptor{}
	}
	if a.cacheKey == "" {
		a.cacheKey = DefaultTokensCacheKey
	}
	if a.refreshedExpiry <= 0 {
		a.refreshedExpiry = DefaultRefreshedTokenLifetime
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard, "", 0)
	}
	return a
}

// String never includes the credentials.
func (a Authenticator) String() string {
	return fmt.Sprintf("easee.Authenticator{userName: %q, password: %q, baseURL: %q, tokenStore: %T, encryptor: %T}",
		redacted, redacted, a.baseURL, a.store, a.encryptor)
}

func (a Authenticator) GoString() string {
	return a.String()
}

func (a *Authenticator) CacheKey() string {
	return a.cacheKey
}

// AccessToken returns the cached access token and logs in on a cache miss.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	blob, err := a.store.Fetch(ctx, a.cacheKey, a.loginAndSeal)
	if err != nil {
		return "", err
	}
	tokens, err := a.open(blob)
	if err != nil {
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("%w: accessToken missing", ErrMalformedTokenPair)
	}
	return tokens.AccessToken, nil
}

// ForceRefresh exchanges the cached pair for a new one and caches it with a
// bounded lifetime. Transport failures are reported as ErrRequestFailed.
func (a *Authenticator) ForceRefresh(ctx context.Context) error {
	blob, err := a.store.Read(ctx, a.cacheKey)
	if err != nil {
		return err
	}
	if blob == nil {
		return fmt.Errorf("%w: no token pair cached", ErrMalformedTokenPair)
	}
	tokens, err := a.open(blob)
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return fmt.Errorf("%w: accessToken and refreshToken are required for a refresh", ErrMalformedTokenPair)
	}

	resp, err := a.transport.Post(ctx, a.baseURL+"/accounts/refresh_token", refreshBody{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil, "")
	if err != nil {
		return refreshFailed(err)
	}
	var refreshed TokenPair
	if err := DecodeValidateBody(resp, &refreshed); err != nil {
		return requestFailed("Invalid refresh response", resp, err)
	}

	sealed, err := a.seal(&refreshed)
	if err != nil {
		return err
	}
	if err := a.store.Write(ctx, a.cacheKey, sealed, a.refreshedExpiry); err != nil {
		return fmt.Errorf("could not cache refreshed tokens: %w", err)
	}
	a.logger.Println("easee: access token refreshed")
	return nil
}

// Login requests a new token pair without caching it.
func (a *Authenticator) Login(ctx context.Context) (*TokenPair, error) {
	resp, err := a.transport.Post(ctx, a.baseURL+"/accounts/login", loginBody{
		UserName: a.credentials.UserName,
		Password: a.credentials.Password,
	}, nil, "")
	if err != nil {
		return nil, classify(err, true)
	}
	var tokens TokenPair
	if err := DecodeValidateBody(resp, &tokens); err != nil {
		return nil, requestFailed("Invalid login response", resp, err)
	}
	return &tokens, nil
}

func (a *Authenticator) loginAndSeal(ctx context.Context) ([]byte, error) {
	tokens, err := a.Login(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Println("easee: logged in")
	return a.seal(tokens)
}

func (a *Authenticator) seal(tokens *TokenPair) ([]byte, error) {
	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return nil, err
	}
	blob, err := a.encryptor.Encrypt(plaintext, EncryptOptions{Deterministic: true})
	if err != nil {
		return nil, fmt.Errorf("could not encrypt tokens: %w", err)
	}
	return blob, nil
}

func (a *Authenticator) open(blob []byte) (*TokenPair, error) {
	plaintext, err := a.encryptor.Decrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt tokens: %w", err)
	}
	var tokens TokenPair
	if err := json.Unmarshal(plaintext, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedTokenPair, err.Error())
	}
	return &tokens, nil
}

// refreshFailed never reinterprets a failed refresh call: every status is
// reported as a plain request failure.
func refreshFailed(err error) error {
	classified := classify(err, false)
	reqErr, ok := classified.(*RequestError)
	if !ok || reqErr.kind == ErrRequestFailed {
		return classified
	}
	return requestFailed(fmt.Sprintf("Request returned status %d", reqErr.StatusCode()), reqErr.Response, nil)
}
