package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/solsnipe/pkg/retry"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultDexScreenerBaseURL = "https://api.dexscreener.com"

// DexScreenerClient dexscreener 公开行情接口客户端
// 限流和服务端错误会按指数退避重试
type DexScreenerClient struct {
	client *resty.Client
	logger *zap.Logger
}

func NewDexScreenerClient(baseURL string, logger *zap.Logger) *DexScreenerClient {
	if baseURL == "" {
		baseURL = defaultDexScreenerBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")
	return &DexScreenerClient{
		client: client,
		logger: logger,
	}
}

// LatestProfiles 获取最新发布的代币档案
func (c *DexScreenerClient) LatestProfiles(ctx context.Context) ([]TokenProfile, error) {
	return retry.Do(ctx, retry.Options{}, func(ctx context.Context) ([]TokenProfile, error) {
		var profiles []TokenProfile
		resp, err := c.client.R().
			SetContext(ctx).
			SetResult(&profiles).
			Get("/token-profiles/latest/v1")
		if err != nil {
			return nil, fmt.Errorf("fetch token profiles: %w", err)
		}
		if resp.IsError() {
			return nil, &retry.StatusError{StatusCode: resp.StatusCode(), Message: "token profiles"}
		}
		return profiles, nil
	})
}

// TokenPairs 获取指定代币在链上的交易对
func (c *DexScreenerClient) TokenPairs(ctx context.Context, chainID, tokenAddress string) ([]TokenPair, error) {
	return retry.Do(ctx, retry.Options{}, func(ctx context.Context) ([]TokenPair, error) {
		var pairs []TokenPair
		resp, err := c.client.R().
			SetContext(ctx).
			SetResult(&pairs).
			Get(fmt.Sprintf("/tokens/v1/%s/%s", chainID, tokenAddress))
		if err != nil {
			return nil, fmt.Errorf("fetch token pairs: %w", err)
		}
		if resp.IsError() {
			return nil, &retry.StatusError{StatusCode: resp.StatusCode(), Message: "token pairs"}
		}
		return pairs, nil
	})
}
