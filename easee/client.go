package easee

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.easee.cloud/api"

// Client talks to the Easee cloud API on behalf of one account.
type Client struct {
	baseURL     string
	credentials Credentials
	transport   Transport
	store       TokenStore
	encryptor   Encryptor
	cacheKey    string
	refreshed   time.Duration
	logger      *log.Logger
	time        Time
	auth        *Authenticator
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(client)
	}
}

func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

func WithEncryptor(encryptor Encryptor) Option {
	return func(c *Client) {
		c.encryptor = encryptor
	}
}

// WithCacheKey sets the key the token pair is stored under, allowing several
// clients to share one TokenStore.
func WithCacheKey(key string) Option {
	return func(c *Client) {
		c.cacheKey = key
	}
}

func WithRefreshedTokenLifetime(d time.Duration) Option {
	return func(c *Client) {
		c.refreshed = d
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTime(t Time) Option {
	return func(c *Client) {
		c.time = t
	}
}

// NewClient creates a client. Without WithTokenStore the tokens are cached in
// memory for the lifetime of the process.
func NewClient(userName, password string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     DefaultBaseURL,
		credentials: Credentials{UserName: userName, Password: password},
		encryptor:   NullEncryptor{},
		cacheKey:    DefaultTokensCacheKey,
		refreshed:   DefaultRefreshedTokenLifetime,
		logger:      log.New(io.Discard, "", 0),
		time:        new(RealTime),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	if c.store == nil {
		store, err := NewBigCacheTokenStore(context.Background(), DefaultTokenStoreLifetime)
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	c.auth = NewAuthenticator(AuthenticatorConfig{
		Credentials:            c.credentials,
		BaseURL:                c.baseURL,
		Transport:              c.transport,
		TokenStore:             c.store,
		Encryptor:              c.encryptor,
		CacheKey:               c.cacheKey,
		RefreshedTokenLifetime: c.refreshed,
		Logger:                 c.logger,
	})
	return c, nil
}

func (c *Client) Authenticator() *Authenticator {
	return c.auth
}

// https://developer.easee.com/reference/post_api-accounts-login
func (c *Client) Login(ctx context.Context) (*TokenPair, error) {
	return c.auth.Login(ctx)
}

// https://developer.easee.com/reference/get_api-chargers
func (c *Client) Chargers(ctx context.Context) ([]Charger, error) {
	resp, err := c.do(ctx, http.MethodGet, "/chargers", nil, nil)
	if err != nil {
		return nil, err
	}
	chargers, err := decodeValidateList[Charger](resp)
	if err != nil {
		return nil, requestFailed("Invalid chargers response", resp, err)
	}
	return chargers, nil
}

// https://developer.easee.com/reference/get_api-chargers-id-state
func (c *Client) State(ctx context.Context, chargerID string) (*State, error) {
	resp, err := c.do(ctx, http.MethodGet, chargerPath(chargerID, "/state"), nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsJSON() {
		return nil, requestFailed("Invalid state response", resp, nil)
	}
	state, err := ParseState(resp.Body, c.time.UTCNow())
	if err != nil {
		return nil, requestFailed("Invalid state response", resp, err)
	}
	return state, nil
}

// https://developer.easee.com/reference/get_api-chargers-id-config
func (c *Client) Configuration(ctx context.Context, chargerID string) (*Configuration, error) {
	resp, err := c.do(ctx, http.MethodGet, chargerPath(chargerID, "/config"), nil, nil)
	if err != nil {
		return nil, err
	}
	var m Configuration
	if err := DecodeValidateBody(resp, &m); err != nil {
		return nil, requestFailed("Invalid configuration response", resp, err)
	}
	return &m, nil
}

// https://developer.easee.com/reference/get_api-chargers-id-site
func (c *Client) Site(ctx context.Context, chargerID string) (*Site, error) {
	resp, err := c.do(ctx, http.MethodGet, chargerPath(chargerID, "/site"), nil, nil)
	if err != nil {
		return nil, err
	}
	var m Site
	if err := DecodeValidateBody(resp, &m); err != nil {
		return nil, requestFailed("Invalid site response", resp, err)
	}
	return &m, nil
}

// https://developer.easee.com/reference/post_api-chargers-id-pair
func (c *Client) Pair(ctx context.Context, chargerID, pinCode string) error {
	_, err := c.do(ctx, http.MethodPost, chargerPath(chargerID, "/pair"), url.Values{"pinCode": {pinCode}}, nil)
	return err
}

// https://developer.easee.com/reference/post_api-chargers-id-unpair
func (c *Client) Unpair(ctx context.Context, chargerID, pinCode string) error {
	_, err := c.do(ctx, http.MethodPost, chargerPath(chargerID, "/unpair"), url.Values{"pinCode": {pinCode}}, nil)
	return err
}

// https://developer.easee.com/reference/post_api-chargers-id-commands-pause-charging
func (c *Client) PauseCharging(ctx context.Context, chargerID string) error {
	_, err := c.do(ctx, http.MethodPost, chargerPath(chargerID, "/commands/pause_charging"), nil, nil)
	return err
}

// https://developer.easee.com/reference/post_api-chargers-id-commands-resume-charging
func (c *Client) ResumeCharging(ctx context.Context, chargerID string) error {
	_, err := c.do(ctx, http.MethodPost, chargerPath(chargerID, "/commands/resume_charging"), nil, nil)
	return err
}

// https://developer.easee.com/reference/post_api-chargers-chargerid-commands-poll-lifetimeenergy
func (c *Client) PollLifetimeEnergy(ctx context.Context, chargerID string) error {
	_, err := c.do(ctx, http.MethodPost, chargerPath(chargerID, "/commands/poll_lifetimeenergy"), nil, nil)
	return err
}

// String never includes the credentials.
func (c Client) String() string {
	return fmt.Sprintf("easee.Client{userName: %q, password: %q, tokenStore: %T, encryptor: %T}",
		redacted, redacted, c.store, c.encryptor)
}

func (c Client) GoString() string {
	return c.String()
}

func chargerPath(chargerID, suffix string) string {
	return "/chargers/" + url.PathEscape(chargerID) + suffix
}
