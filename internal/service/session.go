package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skinvault-api/internal/model"
)

const (
	// SessionPrefix is the prefix for all session tokens
	SessionPrefix = "svt_"

	// SessionTTL is the default session lifetime
	SessionTTL = 24 * time.Hour

	// sessionRedisKeyPrefix is the Redis key prefix for sessions
	sessionRedisKeyPrefix = "skinvault:session:"
)

// SessionService is the authentication collaborator: it issues bearer
// tokens and resolves them back to {userId, steamId}. Absence of a
// session is an authorization failure, never a silent pass-through.
type SessionService struct {
	redis *redis.Client
}

// NewSessionService creates a new session service.
func NewSessionService(redisClient *redis.Client) *SessionService {
	return &SessionService{redis: redisClient}
}

// Create issues a new session token for the user and stores it in Redis.
func (s *SessionService) Create(ctx context.Context, userID int64, steamID string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := SessionPrefix + hex.EncodeToString(tokenBytes)

	now := time.Now()
	session := model.Session{
		UserID:    userID,
		SteamID:   steamID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionRedisKeyPrefix+token, data, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Get resolves a token to its session, or errors when the token is
// missing, malformed, or expired.
func (s *SessionService) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	if len(token) < len(SessionPrefix) || token[:len(SessionPrefix)] != SessionPrefix {
		return nil, fmt.Errorf("invalid token format")
	}

	key := sessionRedisKeyPrefix + token
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		s.redis.Del(ctx, key)
		return nil, fmt.Errorf("session expired")
	}
	return &session, nil
}

// Revoke deletes a session token.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.redis.Del(ctx, sessionRedisKeyPrefix+token).Err()
}
