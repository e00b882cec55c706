package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"colloquy/internal/ratelimit"
	"colloquy/internal/repository"
)

// NewStandingResolver builds the rate limiter's tier resolver from the user
// repository. Subjects look like "user:42" or "guest:203.0.113.9"; guests and
// unparseable subjects resolve to the free tier, unblocked.
func NewStandingResolver(users repository.UserRepository) ratelimit.Resolver {
	return func(ctx context.Context, subject string) (ratelimit.Standing, error) {
		id, ok := strings.CutPrefix(subject, "user:")
		if !ok {
			return ratelimit.Standing{Tier: "free"}, nil
		}
		userID, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return ratelimit.Standing{Tier: "free"}, nil
		}

		profile, err := users.TrustProfile(ctx, uint(userID))
		if err != nil {
			return ratelimit.Standing{}, err
		}
		return ratelimit.Standing{
			Tier:    profile.Tier(),
			Blocked: profile.Blocked(time.Now()),
		}, nil
	}
}
