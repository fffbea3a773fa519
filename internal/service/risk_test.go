package service

import (
	"testing"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
)

func TestAssessRisk_Tiers(t *testing.T) {
	cases := []struct {
		name      string
		marketCap float64
		liquidity float64
		holders   int
		want      models.RiskLevel
	}{
		{"very low liquidity", 100000, 4.9, 500, models.RiskDanger},
		{"very few holders", 100000, 100, 29, models.RiskDanger},
		{"micro cap", 9999, 100, 500, models.RiskDanger},
		{"low liquidity", 100000, 19, 500, models.RiskRisky},
		{"few holders", 100000, 100, 99, models.RiskRisky},
		{"low cap", 49999, 100, 500, models.RiskRisky},
		{"healthy", 100000, 100, 500, models.RiskSafe},
		{"unknown holders ignored", 100000, 100, 0, models.RiskSafe},
		{"unknown mcap ignored", 0, 100, 500, models.RiskSafe},
	}
	for _, tc := range cases {
		got := AssessRisk(tc.marketCap, tc.liquidity, tc.holders)
		if got != tc.want {
			t.Fatalf("%s: AssessRisk = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestAssessRisk_NoWorseWithBetterInputs(t *testing.T) {
	rank := map[models.RiskLevel]int{models.RiskSafe: 0, models.RiskRisky: 1, models.RiskDanger: 2}

	base := AssessRisk(20000, 10, 50)
	betterLiq := AssessRisk(20000, 100, 50)
	if rank[betterLiq] > rank[base] {
		t.Fatalf("higher liquidity worsened risk: %s -> %s", base, betterLiq)
	}
	betterHolders := AssessRisk(20000, 10, 500)
	if rank[betterHolders] > rank[base] {
		t.Fatalf("more holders worsened risk: %s -> %s", base, betterHolders)
	}
	betterCap := AssessRisk(200000, 10, 50)
	if rank[betterCap] > rank[base] {
		t.Fatalf("higher market cap worsened risk: %s -> %s", base, betterCap)
	}
}

func TestRiskReasons_MatchLevel(t *testing.T) {
	reasons := RiskReasons(9000, 3, 20)
	if len(reasons) != 3 {
		t.Fatalf("reasons = %v, want 3 entries", reasons)
	}
	if reasons[0] != "Very low liquidity" || reasons[1] != "Very few holders" || reasons[2] != "Micro cap" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}

	if got := RiskReasons(100000, 100, 500); len(got) != 0 {
		t.Fatalf("safe token should have no reasons, got %v", got)
	}
}

func TestEvaluateOpportunity_DangerSkipped(t *testing.T) {
	now := time.Now()
	token := models.Token{
		Address:    "So11111111111111111111111111111111111111112",
		Risk:       models.RiskDanger,
		Liquidity:  100,
		LaunchedAt: now,
	}
	if opp := EvaluateOpportunity(token, now); opp != nil {
		t.Fatalf("danger token should produce no opportunity, got %+v", opp)
	}

	token.Risk = models.RiskSafe
	token.Liquidity = 4
	if opp := EvaluateOpportunity(token, now); opp != nil {
		t.Fatalf("illiquid token should produce no opportunity, got %+v", opp)
	}
}

func TestEvaluateOpportunity_FreshSafeToken(t *testing.T) {
	now := time.Now()
	token := models.Token{
		Address:    "tok1",
		Risk:       models.RiskSafe,
		Liquidity:  60,
		LaunchedAt: now.Add(-5 * time.Minute),
	}
	opp := EvaluateOpportunity(token, now)
	if opp == nil {
		t.Fatal("expected an opportunity")
	}
	if opp.Score != 85 {
		t.Fatalf("score = %d, want 85 (50 base + 20 fresh + 15 liquidity)", opp.Score)
	}
	if opp.SuggestedAction != "buy" {
		t.Fatalf("action = %s, want buy", opp.SuggestedAction)
	}
	if opp.SuggestedSize != 0.1 {
		t.Fatalf("size = %v, want 0.1", opp.SuggestedSize)
	}
	if opp.Type != "new_launch" {
		t.Fatalf("type = %s, want new_launch", opp.Type)
	}
	if !opp.ExpiresAt.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expires = %v, want now+5m", opp.ExpiresAt)
	}
}

func TestEvaluateOpportunity_BreakoutWatch(t *testing.T) {
	now := time.Now()
	token := models.Token{
		Address:        "tok2",
		Risk:           models.RiskRisky,
		Liquidity:      10,
		PriceChange24h: 45,
		LaunchedAt:     now.Add(-2 * time.Hour),
	}
	opp := EvaluateOpportunity(token, now)
	if opp == nil {
		t.Fatal("expected an opportunity")
	}
	if opp.Type != "breakout" {
		t.Fatalf("type = %s, want breakout", opp.Type)
	}
	if opp.Score != 65 {
		t.Fatalf("score = %d, want 65 (50 base + 15 breakout)", opp.Score)
	}
	// 65分不到买入线，只建议观察
	if opp.SuggestedAction != "watch" {
		t.Fatalf("action = %s, want watch", opp.SuggestedAction)
	}
	if opp.SuggestedSize != 0 {
		t.Fatalf("size = %v, want 0", opp.SuggestedSize)
	}
}

func TestEvaluateOpportunity_RiskyHighScoreStillWatch(t *testing.T) {
	now := time.Now()
	token := models.Token{
		Address:    "tok3",
		Risk:       models.RiskRisky,
		Liquidity:  60,
		LaunchedAt: now.Add(-1 * time.Minute),
	}
	opp := EvaluateOpportunity(token, now)
	if opp == nil {
		t.Fatal("expected an opportunity")
	}
	if opp.Score < 70 {
		t.Fatalf("score = %d, want >= 70", opp.Score)
	}
	// 分数够但风险不是safe，不建议买入
	if opp.SuggestedAction != "watch" {
		t.Fatalf("action = %s, want watch", opp.SuggestedAction)
	}
}
