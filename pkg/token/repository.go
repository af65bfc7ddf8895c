package token

import (
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"github.com/harryhq/mail-manager/internal/errdef"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(client *redis.Client) *redisRepository {
	return &redisRepository{client}
}

// redisRepository tracks which refresh tokens are live. A refresh token is only redeemable
// while its key exists, deleting the keys of a user signs them out everywhere.
type redisRepository struct {
	client *redis.Client
}

func refreshTokenKey(userId uint, tokenId string) string {
	return fmt.Sprintf("refreshToken:%d:%s", userId, tokenId)
}

func (r redisRepository) SetRefreshToken(userId uint, tokenId string, expiresIn time.Duration) error {
	err := r.client.Set(refreshTokenKey(userId, tokenId), "1", expiresIn).Err()
	if err != nil {
		return fmt.Errorf("failed to store refresh token for user %d: %v", userId, err)
	}
	return nil
}

func (r redisRepository) DeleteRefreshToken(userId uint, tokenId string) error {
	deleted, err := r.client.Del(refreshTokenKey(userId, tokenId)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token for user %d: %v", userId, err)
	}
	if deleted < 1 {
		// the token was already redeemed, expired or signed out
		return errdef.NewNotFound("refresh token not found for user %d", userId)
	}
	return nil
}

func (r redisRepository) DeleteRefreshTokens(userId uint) error {
	pattern := refreshTokenKey(userId, "*")

	var keys []string
	iterator := r.client.Scan(0, pattern, 0).Iterator()
	for iterator.Next() {
		keys = append(keys, iterator.Val())
	}
	if err := iterator.Err(); err != nil {
		return fmt.Errorf("failed to scan refresh tokens of user %d: %v", userId, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh tokens of user %d: %v", userId, err)
	}
	return nil
}
