package feed

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
)

// 币安不可用时的兜底价格，只影响流动性的美元换算
const fallbackSolPrice = 100.0

const solPriceCacheTTL = time.Minute

// BinanceClient Binance现货行情客户端，用于获取SOL参考价
type BinanceClient struct {
	client *binance.Client

	priceLock   sync.RWMutex
	cachedPrice float64
	cachedAt    time.Time
}

// NewBinanceClient 创建Binance客户端，公开行情接口无需密钥
func NewBinanceClient(apiKey, secretKey, proxyURL string) *BinanceClient {
	var client *binance.Client
	if proxyURL != "" {
		client = binance.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = binance.NewClient(apiKey, secretKey)
	}
	return &BinanceClient{client: client}
}

// GetSolPrice 获取SOL/USDT最新价格，结果缓存一分钟
// 接口不可用时返回上次缓存值或兜底价格，调用方不需要处理错误
func (b *BinanceClient) GetSolPrice(ctx context.Context) float64 {
	b.priceLock.RLock()
	if b.cachedPrice > 0 && time.Since(b.cachedAt) < solPriceCacheTTL {
		price := b.cachedPrice
		b.priceLock.RUnlock()
		return price
	}
	b.priceLock.RUnlock()

	price, err := b.fetchSolPrice(ctx)
	if err != nil {
		b.priceLock.RLock()
		defer b.priceLock.RUnlock()
		if b.cachedPrice > 0 {
			return b.cachedPrice
		}
		return fallbackSolPrice
	}

	b.priceLock.Lock()
	b.cachedPrice = price
	b.cachedAt = time.Now()
	b.priceLock.Unlock()
	return price
}

func (b *BinanceClient) fetchSolPrice(ctx context.Context) (float64, error) {
	prices, err := b.client.NewListPricesService().
		Symbol("SOLUSDT").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get sol price: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("empty price response for SOLUSDT")
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sol price: %w", err)
	}
	return price, nil
}
