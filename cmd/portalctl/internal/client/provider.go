package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/auth"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/redisstore"
	"github.com/pterm/pterm"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portalctl"

// Options configures a Provider.
type Options struct {
	ServerURL       string
	Profile         string
	HTTPTimeout     time.Duration
	LoginPath       string
	CurrentUserPath string
	// RedisURL selects the Redis session store; empty uses the profile file.
	RedisURL string
	// StoreDir overrides ~/.portal/profiles for the file store.
	StoreDir string
	// Logger receives sdk session events. Discarded when nil.
	Logger *log.Logger
	// Warn is called once per process when the session is invalidated.
	// Defaults to a pterm warning.
	Warn func(reason error)
}

// Provider lazily builds the session store, transport, manager and guard
// shared by all commands of one invocation.
type Provider struct {
	opts Options

	storeOnce sync.Once
	store     sdk.SessionStore
	rdb       *redis.Client
	storeErr  error

	transportOnce sync.Once
	transport     *sdk.Transport
	transportErr  error

	guardOnce sync.Once
	guard     *sdk.Guard
	guardErr  error

	warnOnce sync.Once
}

// NewProvider constructs a new Provider.
func NewProvider(opts Options) *Provider {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Warn == nil {
		opts.Warn = func(error) {
			pterm.Warning.Println("Your session has ended; run `portalctl auth login` to sign in again.")
		}
	}
	return &Provider{opts: opts}
}

// ServerURL returns the API endpoint commands talk to.
func (p *Provider) ServerURL() string {
	if p.opts.ServerURL == "" {
		return sdk.DefaultBaseURL
	}
	return p.opts.ServerURL
}

// Store returns the session store for the selected profile.
func (p *Provider) Store() (sdk.SessionStore, error) {
	p.storeOnce.Do(func() {
		if p.opts.RedisURL != "" {
			redisOpts, err := redis.ParseURL(p.opts.RedisURL)
			if err != nil {
				p.storeErr = fmt.Errorf("invalid redis URL: %w", err)
				return
			}
			p.rdb = redis.NewClient(redisOpts)
			p.store = redisstore.New(p.rdb, redisKeyPrefix, p.opts.Profile)
			return
		}

		store, err := auth.NewFileStore(p.opts.StoreDir, p.opts.Profile)
		if err != nil {
			p.storeErr = fmt.Errorf("failed to create session store: %w", err)
			return
		}
		p.store = store
	})
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// Transport returns the authenticated transport. The first hard logout it
// performs prints a warning.
func (p *Provider) Transport() (*sdk.Transport, error) {
	p.transportOnce.Do(func() {
		store, err := p.Store()
		if err != nil {
			p.transportErr = err
			return
		}

		p.transport = sdk.NewTransport(p.ServerURL(), store,
			sdk.WithHTTPClient(&http.Client{Timeout: p.opts.HTTPTimeout}),
			sdk.WithLogger(p.opts.Logger),
			sdk.WithUserAgent("portalctl"),
		)
		p.transport.OnSessionInvalidated(func(_ context.Context, reason error) {
			p.warnOnce.Do(func() { p.opts.Warn(reason) })
		})
	})
	if p.transportErr != nil {
		return nil, p.transportErr
	}
	return p.transport, nil
}

// Manager returns a session manager over Transport.
func (p *Provider) Manager() (*sdk.Manager, error) {
	transport, err := p.Transport()
	if err != nil {
		return nil, err
	}
	store, err := p.Store()
	if err != nil {
		return nil, err
	}

	var opts []sdk.ManagerOption
	if p.opts.LoginPath != "" {
		opts = append(opts, sdk.WithLoginPath(p.opts.LoginPath))
	}
	if p.opts.CurrentUserPath != "" {
		opts = append(opts, sdk.WithCurrentUserPath(p.opts.CurrentUserPath))
	}
	return sdk.NewManager(transport, store, opts...), nil
}

// Guard returns the page guard.
func (p *Provider) Guard() (*sdk.Guard, error) {
	p.guardOnce.Do(func() {
		p.guard, p.guardErr = sdk.NewGuard()
	})
	return p.guard, p.guardErr
}

// Close releases the Redis connection, if one was opened.
func (p *Provider) Close() error {
	if p.rdb != nil {
		return p.rdb.Close()
	}
	return nil
}
