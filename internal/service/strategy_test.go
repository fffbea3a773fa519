package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
)

func newDeterministicRules(maxTradeSize float64) *RuleStrategy {
	s := NewRuleStrategy(maxTradeSize)
	s.randFloat = func() float64 { return 1.0 } // 关掉随机加分
	return s
}

func TestRuleStrategy_FreshTokenBuys(t *testing.T) {
	s := newDeterministicRules(0.5)
	token := models.Token{
		Symbol:     "$MOON",
		Liquidity:  25,
		Holders:    60,
		Risk:       models.RiskSafe,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	decision, err := s.Evaluate(context.Background(), token)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.Action != "buy" {
		t.Fatalf("action = %s, want buy", decision.Action)
	}
	// 50 + 25年龄 + 20流动性 + 15持有人 + 10安全 = 120 → 95封顶
	if decision.Confidence != 95 {
		t.Fatalf("confidence = %d, want capped 95", decision.Confidence)
	}
	if decision.Size != 0.15 {
		t.Fatalf("size = %v, want 0.15 for high score", decision.Size)
	}
}

func TestRuleStrategy_SizeCappedByMaxTradeSize(t *testing.T) {
	s := newDeterministicRules(0.05)
	token := models.Token{
		Symbol:     "$MOON",
		Liquidity:  25,
		Holders:    60,
		Risk:       models.RiskSafe,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	decision, _ := s.Evaluate(context.Background(), token)
	if decision.Action != "buy" {
		t.Fatalf("action = %s, want buy", decision.Action)
	}
	if decision.Size != 0.05 {
		t.Fatalf("size = %v, want capped at 0.05", decision.Size)
	}
}

func TestRuleStrategy_OldTokenSkipped(t *testing.T) {
	s := newDeterministicRules(0.5)
	token := models.Token{
		Symbol:     "$OLD",
		Liquidity:  1,
		LaunchedAt: time.Now().Add(-2 * time.Hour),
	}
	decision, _ := s.Evaluate(context.Background(), token)
	// 50 - 30年龄 + 5少量流动性 = 25
	if decision.Action != "skip" {
		t.Fatalf("action = %s, want skip", decision.Action)
	}
}

func TestRuleStrategy_MidScoreWatches(t *testing.T) {
	s := newDeterministicRules(0.5)
	token := models.Token{
		Symbol:     "$MID",
		Liquidity:  0,
		Holders:    0,
		LaunchedAt: time.Now().Add(-30 * time.Minute),
	}
	decision, _ := s.Evaluate(context.Background(), token)
	// 基础分50，无加减 → watch
	if decision.Action != "watch" {
		t.Fatalf("action = %s, want watch (score 50)", decision.Action)
	}
	if decision.Confidence != 50 {
		t.Fatalf("confidence = %d, want 50", decision.Confidence)
	}
}

func TestRuleStrategy_RandomBoostCanFlipToBuy(t *testing.T) {
	s := NewRuleStrategy(0.5)
	s.randFloat = func() float64 { return 0.0 } // 必中随机加分
	token := models.Token{
		Symbol:     "$MID",
		LaunchedAt: time.Now().Add(-30 * time.Minute),
	}
	decision, _ := s.Evaluate(context.Background(), token)
	// 50 + 20随机 = 70 → buy
	if decision.Action != "buy" {
		t.Fatalf("action = %s, want buy with random boost", decision.Action)
	}
	if decision.Size != 0.1 {
		t.Fatalf("size = %v, want 0.1 for score below 80", decision.Size)
	}
}
