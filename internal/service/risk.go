package service

import (
	"fmt"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/oklog/ulid/v2"
)

// 机会有效期，过期后由扫描器清理
const opportunityTTL = 5 * time.Minute

// AssessRisk 按流动性、持有人、市值三档评估代币风险
// 任一指标落入危险区间即为danger，持有人和市值为0表示未知不参与判定
func AssessRisk(marketCap, liquidity float64, holders int) models.RiskLevel {
	if liquidity < 5 {
		return models.RiskDanger
	}
	if holders > 0 && holders < 30 {
		return models.RiskDanger
	}
	if marketCap > 0 && marketCap < 10000 {
		return models.RiskDanger
	}

	if liquidity < 20 {
		return models.RiskRisky
	}
	if holders > 0 && holders < 100 {
		return models.RiskRisky
	}
	if marketCap > 0 && marketCap < 50000 {
		return models.RiskRisky
	}

	return models.RiskSafe
}

// RiskReasons 生成与风险等级对应的原因列表
func RiskReasons(marketCap, liquidity float64, holders int) []string {
	var reasons []string
	if liquidity < 5 {
		reasons = append(reasons, "Very low liquidity")
	} else if liquidity < 20 {
		reasons = append(reasons, "Low liquidity")
	}
	if holders > 0 && holders < 30 {
		reasons = append(reasons, "Very few holders")
	} else if holders > 0 && holders < 100 {
		reasons = append(reasons, "Few holders")
	}
	if marketCap > 0 && marketCap < 10000 {
		reasons = append(reasons, "Micro cap")
	} else if marketCap > 0 && marketCap < 50000 {
		reasons = append(reasons, "Low cap")
	}
	return reasons
}

// EvaluateOpportunity 对新代币打分，不值得关注返回nil
// 基础分50，新上线、流动性好、涨幅大各自加分，70分以上且安全才建议买入
func EvaluateOpportunity(token models.Token, now time.Time) *models.Opportunity {
	if token.Risk == models.RiskDanger || token.Liquidity < 5 {
		return nil
	}

	score := 50
	oppType := "new_launch"
	reason := ""

	ageMinutes := now.Sub(token.LaunchedAt).Minutes()
	if ageMinutes < 30 {
		score += 20
		reason = fmt.Sprintf("New (%dm ago)", int(ageMinutes+0.5))
	}

	if token.Liquidity > 50 {
		score += 15
		if reason != "" {
			reason += " | Good liq"
		} else {
			reason = "Good liquidity"
		}
	}

	if token.PriceChange24h > 20 {
		score += 15
		oppType = "breakout"
		if reason != "" {
			reason += fmt.Sprintf(" | +%.0f%%", token.PriceChange24h)
		} else {
			reason = fmt.Sprintf("+%.0f%%", token.PriceChange24h)
		}
	}

	if score < 50 {
		return nil
	}
	if reason == "" {
		reason = "Meets criteria"
	}

	action := "watch"
	if score >= 70 && token.Risk == models.RiskSafe {
		action = "buy"
	}
	size := 0.0
	if score >= 70 {
		size = 0.1
	}

	return &models.Opportunity{
		ID:              ulid.Make().String(),
		TokenAddress:    token.Address,
		Type:            oppType,
		Score:           score,
		Reason:          reason,
		SuggestedAction: action,
		SuggestedSize:   size,
		ExpiresAt:       now.Add(opportunityTTL),
		CreatedAt:       now,
	}
}
