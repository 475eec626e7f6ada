package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// signupBucketPrefix is the Redis key prefix for registration buckets.
	signupBucketPrefix = "ratelimit:signup:"
	// signupBucketTTL bounds how long an idle bucket is kept.
	signupBucketTTL = 5 * time.Minute
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	// Degraded is set when Redis could not be reached and the request was
	// let through without consuming a token.
	Degraded bool
}

// signupBucketScript refills and consumes one token atomically.
// KEYS[1] bucket; ARGV rate (tokens/s), burst, now (s), ttl (s).
// Returns {allowed, retry_after_seconds, remaining}.
var signupBucketScript = redis.NewScript(`
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
	local tokens = tonumber(state[1]) or burst
	local ts = tonumber(state[2]) or now

	tokens = math.min(burst, tokens + math.max(0, now - ts) * rate)

	local allowed = 0
	local retry = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))

	return {allowed, retry, math.floor(tokens)}
`)

// CheckSignupRateLimit consumes one registration token for the client IP.
// A perMinute of zero disables the limit. Redis failures fail open.
func (c *Cache) CheckSignupRateLimit(ctx context.Context, ip string, perMinute, burst int) (*RateLimitResult, error) {
	if perMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst)}, nil
	}
	if burst < 1 {
		burst = 1
	}

	rate := float64(perMinute) / 60.0
	res, err := signupBucketScript.Run(ctx, c.client,
		[]string{signupKey(ip)},
		rate, burst, time.Now().Unix(), int(signupBucketTTL.Seconds()),
	).Int64Slice()
	if err != nil || len(res) != 3 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), Degraded: true}, nil
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Second,
		Remaining:  res[2],
	}, nil
}

func signupKey(ip string) string {
	return signupBucketPrefix + hashIP(ip)
}

// hashIP returns the first 8 bytes of the SHA-256 of ip, hex encoded, so raw
// addresses are never stored.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
