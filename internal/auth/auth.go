package auth

import (
	"context"
	"strings"

	"scoreboard/internal/errorx"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
)

// Authenticator resolves a credential to a user id. The update coordinator
// never trusts a user id from a request body; it always comes from here.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (string, error)
}

// TokenSource looks a bearer token up in whatever holds the identity
// mapping.
type TokenSource interface {
	Lookup(ctx context.Context, token string) (string, error)
}

// TokenAuthenticator fronts a TokenSource with an LRU cache so the hot
// path does not hit the source on every request.
type TokenAuthenticator struct {
	source TokenSource
	cache  *lru.Cache
}

func NewTokenAuthenticator(source TokenSource, cacheSize int) (*TokenAuthenticator, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &TokenAuthenticator{source: source, cache: cache}, nil
}

// Authenticate accepts "Bearer <token>" or a bare token.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, credential string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if token == "" {
		return "", errorx.ErrUnauthorized
	}
	if userID, ok := a.cache.Get(token); ok {
		return userID.(string), nil
	}
	userID, err := a.source.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	a.cache.Add(token, userID)
	return userID, nil
}

// RedisTokens resolves tokens from a redis hash, letting an external
// issuer provision identities out of band.
type RedisTokens struct {
	rdb *redis.Client
	key string
}

func NewRedisTokens(rdb *redis.Client) *RedisTokens {
	return &RedisTokens{rdb: rdb, key: "scoreboard:tokens"}
}

func (s *RedisTokens) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.HGet(ctx, s.key, token).Result()
	if err == redis.Nil {
		return "", errorx.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// StaticTokens serves a fixed token table from config, for development and
// tests.
type StaticTokens map[string]string

func (s StaticTokens) Lookup(_ context.Context, token string) (string, error) {
	userID, ok := s[token]
	if !ok {
		return "", errorx.ErrUnauthorized
	}
	return userID, nil
}

// ChainTokens tries sources in order, first hit wins.
type ChainTokens []TokenSource

func (c ChainTokens) Lookup(ctx context.Context, token string) (string, error) {
	for _, s := range c {
		userID, err := s.Lookup(ctx, token)
		if err == nil {
			return userID, nil
		}
		if err != errorx.ErrUnauthorized {
			return "", err
		}
	}
	return "", errorx.ErrUnauthorized
}
