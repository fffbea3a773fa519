package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
)

// TradeDecision 策略对单个代币给出的判断
type TradeDecision struct {
	Action     string  `json:"action"` // buy/watch/skip
	Confidence int     `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Size       float64 `json:"size"` // 建议买入金额（SOL），仅buy时有值
}

// Strategy 代币评估策略
type Strategy interface {
	Evaluate(ctx context.Context, token models.Token) (TradeDecision, error)
}

// NewRuleStrategy 创建规则打分策略
func NewRuleStrategy(maxTradeSize float64) *RuleStrategy {
	return &RuleStrategy{
		maxTradeSize: maxTradeSize,
		randFloat:    rand.Float64,
	}
}

// RuleStrategy 按年龄、流动性、持有人、风险和涨幅打分
// 60分买入，40分观察，不够则跳过，另有10%的随机加分制造多样性
type RuleStrategy struct {
	maxTradeSize float64
	randFloat    func() float64
}

func (s *RuleStrategy) Evaluate(_ context.Context, token models.Token) (TradeDecision, error) {
	score := 50
	var reasons []string

	ageMinutes := token.AgeMinutes()
	switch {
	case ageMinutes < 1:
		score += 25
		reasons = append(reasons, "just launched")
	case ageMinutes <= 3:
		score += 20
		reasons = append(reasons, "very fresh")
	case ageMinutes <= 10:
		score += 10
		reasons = append(reasons, "still early")
	case ageMinutes > 60:
		score -= 30
		reasons = append(reasons, "too old")
	}

	switch {
	case token.Liquidity >= 20:
		score += 20
		reasons = append(reasons, "strong liq")
	case token.Liquidity >= 5:
		score += 10
		reasons = append(reasons, "has liquidity")
	case token.Liquidity > 0:
		// 新代币流动性从0开始，少量也不扣分
		score += 5
	}

	switch {
	case token.Holders >= 50:
		score += 15
		reasons = append(reasons, "growing community")
	case token.Holders >= 10:
		score += 5
	}

	if token.Risk == models.RiskSafe {
		score += 10
	}

	switch {
	case token.PriceChange24h > 100:
		score += 15
		reasons = append(reasons, "pumping")
	case token.PriceChange24h > 20:
		score += 5
	}

	if s.randFloat() < 0.10 {
		score += 20
		reasons = append(reasons, "YOLO")
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	reasoning := strings.Join(reasons, ", ")

	switch {
	case score >= 60:
		size := 0.1
		if score >= 80 {
			size = 0.15
		}
		if size > s.maxTradeSize {
			size = s.maxTradeSize
		}
		confidence := score
		if confidence > 95 {
			confidence = 95
		}
		if reasoning == "" {
			reasoning = "looks promising"
		}
		return TradeDecision{Action: "buy", Confidence: confidence, Reasoning: reasoning, Size: size}, nil
	case score >= 40:
		if reasoning == "" {
			reasoning = "monitoring"
		}
		return TradeDecision{Action: "watch", Confidence: score, Reasoning: reasoning}, nil
	default:
		if score < 0 {
			score = -score
		}
		if reasoning == "" {
			reasoning = "doesn't meet criteria"
		}
		return TradeDecision{Action: "skip", Confidence: score, Reasoning: reasoning}, nil
	}
}

//go:embed templates/advisory_prompt.txt
var advisoryPromptTemplate string

const advisoryTimeout = 15 * time.Second

// NewAdvisoryStrategy 创建LLM决策策略，调用失败时退回规则策略
func NewAdvisoryStrategy(logger *zap.Logger, client *openai.Client, model string, fallback *RuleStrategy) *AdvisoryStrategy {
	return &AdvisoryStrategy{
		logger:   logger,
		client:   client,
		model:    model,
		fallback: fallback,
	}
}

// AdvisoryStrategy 把代币画像交给LLM判断
type AdvisoryStrategy struct {
	logger   *zap.Logger
	client   *openai.Client
	model    string
	fallback *RuleStrategy
}

func (s *AdvisoryStrategy) Evaluate(ctx context.Context, token models.Token) (TradeDecision, error) {
	decision, err := s.ask(ctx, token)
	if err != nil {
		s.logger.Warn("llm decision failed, falling back to rules",
			zap.String("symbol", token.Symbol), zap.Error(err))
		return s.fallback.Evaluate(ctx, token)
	}
	return decision, nil
}

func (s *AdvisoryStrategy) ask(ctx context.Context, token models.Token) (TradeDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, advisoryTimeout)
	defer cancel()

	ageSeconds := int(time.Since(token.LaunchedAt).Seconds())
	tmpl := fasttemplate.New(advisoryPromptTemplate, "{{", "}}")
	prompt := tmpl.ExecuteString(map[string]interface{}{
		"symbol":      token.Symbol,
		"name":        token.Name,
		"age_seconds": fmt.Sprintf("%d", ageSeconds),
		"holders":     fmt.Sprintf("%d", token.Holders),
		"liquidity":   fmt.Sprintf("%.2f", token.Liquidity),
	})

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		return TradeDecision{}, fmt.Errorf("failed to call LLM: %w", err)
	}
	if len(resp.Choices) == 0 {
		return TradeDecision{}, fmt.Errorf("empty LLM response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var decision TradeDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &decision); err != nil {
		return TradeDecision{}, fmt.Errorf("parse LLM decision: %w", err)
	}
	if decision.Action == "" {
		decision.Action = "skip"
	}
	if decision.Reasoning == "" {
		decision.Reasoning = "No reasoning provided"
	}
	if decision.Size > s.fallback.maxTradeSize {
		decision.Size = s.fallback.maxTradeSize
	}
	return decision, nil
}
