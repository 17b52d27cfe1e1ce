//go:build integration

package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"creditgate/internal/compliance/monitor"
	"creditgate/pkg/testutil/containers"
)

type RedisDeduperSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	dedupe *monitor.RedisDeduper
}

func TestRedisDeduperSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisDeduperSuite))
}

func (s *RedisDeduperSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.dedupe = monitor.NewRedisDeduper(s.redis.Client, time.Second)
}

func (s *RedisDeduperSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisDeduperSuite) TestFirstClaimWins() {
	ctx := context.Background()

	first, err := s.dedupe.Claim(ctx, "violation:abc")
	s.Require().NoError(err)
	s.True(first)

	again, err := s.dedupe.Claim(ctx, "violation:abc")
	s.Require().NoError(err)
	s.False(again)

	other, err := s.dedupe.Claim(ctx, "escalation:abc")
	s.Require().NoError(err)
	s.True(other)
}

func (s *RedisDeduperSuite) TestClaimExpires() {
	ctx := context.Background()

	_, err := s.dedupe.Claim(ctx, "violation:ttl")
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(ctx, "creditgate:compliance:seen:violation:ttl").Result()
	s.Require().NoError(err)
	s.Positive(ttl)

	s.Eventually(func() bool {
		ok, err := s.dedupe.Claim(ctx, "violation:ttl")
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond)
}
