// Package redisstore keeps portal sessions in Redis so that several processes
// serving the same browser context share one credential pair.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport level failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	fieldAccess  = "access"
	fieldRefresh = "refresh"
)

// updateAccessScript swaps the access token only while a complete pair exists,
// so a concurrent Clear can never be undone by a late refresh.
const updateAccessScript = `
local refresh = redis.call("HGET", KEYS[1], "refresh")
if not refresh or refresh == "" then
  return 0
end
redis.call("HSET", KEYS[1], "access", ARGV[1])
return 1
`

var updateAccessLua = redis.NewScript(updateAccessScript)

// Store is a sdk.SessionStore backed by a Redis hash for the credential pair
// and a JSON string for the cached identity.
type Store struct {
	rdb       redis.UniversalClient
	prefix    string
	contextID string
	ttl       time.Duration
}

// Ensure Store implements sdk.SessionStore at compile time.
var _ sdk.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL expires both keys ttl after the last credential write. Zero keeps
// them until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New returns a store for contextID under the key namespace prefix.
func New(rdb redis.UniversalClient, prefix, contextID string, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: prefix, contextID: contextID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewContextID returns a random identifier for a new browser context.
func NewContextID() string {
	return uuid.NewString()
}

// ContextID returns the browser context this store is bound to.
func (s *Store) ContextID() string {
	return s.contextID
}

// Keys share a hash tag so Clear stays a single-slot command on a cluster.
func (s *Store) pairKey() string {
	return s.prefix + ":{" + s.contextID + "}:pair"
}

func (s *Store) identityKey() string {
	return s.prefix + ":{" + s.contextID + "}:identity"
}

func (s *Store) Credentials(ctx context.Context) (sdk.Credentials, error) {
	vals, err := s.rdb.HMGet(ctx, s.pairKey(), fieldAccess, fieldRefresh).Result()
	if err != nil {
		return sdk.Credentials{}, unavailable(err)
	}

	creds := sdk.Credentials{AccessToken: asString(vals[0]), RefreshToken: asString(vals[1])}
	if !creds.Complete() {
		return sdk.Credentials{}, sdk.ErrNoSession
	}
	return creds, nil
}

func (s *Store) SaveCredentials(ctx context.Context, creds sdk.Credentials) error {
	if err := sdk.ValidateCredentials(creds); err != nil {
		return err
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.pairKey(), fieldAccess, creds.AccessToken, fieldRefresh, creds.RefreshToken)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.pairKey(), s.ttl)
			pipe.Expire(ctx, s.identityKey(), s.ttl)
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) UpdateAccessToken(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("access token is required")
	}

	updated, err := updateAccessLua.Run(ctx, s.rdb, []string{s.pairKey()}, accessToken).Int64()
	if err != nil {
		return unavailable(err)
	}
	if updated == 0 {
		return sdk.ErrNoSession
	}
	return nil
}

func (s *Store) Identity(ctx context.Context) (*sdk.Identity, error) {
	data, err := s.rdb.Get(ctx, s.identityKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sdk.ErrNoSession
		}
		return nil, unavailable(err)
	}

	var identity sdk.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decode cached identity: %w", err)
	}
	return &identity, nil
}

func (s *Store) SaveIdentity(ctx context.Context, identity *sdk.Identity) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.rdb.Set(ctx, s.identityKey(), data, s.ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) ClearIdentity(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.identityKey()).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Clear deletes the pair and the identity in one command.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.pairKey(), s.identityKey()).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func asString(v any) string {
	str, _ := v.(string)
	return str
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
}
