package events

import (
	"sync"

	"github.com/dushixiang/solsnipe/internal/models"
	"go.uber.org/zap"
)

// Kind 事件类型，闭集
type Kind string

const (
	KindTokenDiscovered  Kind = "token_discovered"
	KindOpportunityFound Kind = "opportunity_found"
	KindTradeExecuted    Kind = "trade_executed"
	KindTradeBlocked     Kind = "trade_blocked"
	KindPositionUpdated  Kind = "position_updated"
	KindActivity         Kind = "activity"
)

// Event 系统内广播的事件
type Event interface {
	Kind() Kind
}

// TokenDiscovered 发现新代币
type TokenDiscovered struct {
	Token models.Token `json:"token"`
}

func (TokenDiscovered) Kind() Kind { return KindTokenDiscovered }

// OpportunityFound 发现交易机会
type OpportunityFound struct {
	Opportunity models.Opportunity `json:"opportunity"`
	Token       models.Token       `json:"token"`
}

func (OpportunityFound) Kind() Kind { return KindOpportunityFound }

// TradeExecuted 交易已成交
type TradeExecuted struct {
	Trade models.Trade `json:"trade"`
}

func (TradeExecuted) Kind() Kind { return KindTradeExecuted }

// TradeBlocked 交易被风控拦截
type TradeBlocked struct {
	WalletAddress string `json:"wallet_address"`
	Reason        string `json:"reason"`
}

func (TradeBlocked) Kind() Kind { return KindTradeBlocked }

// PositionUpdated 持仓快照已刷新
type PositionUpdated struct {
	WalletAddress string  `json:"wallet_address"`
	TokenAddress  string  `json:"token_address"`
	TokenSymbol   string  `json:"token_symbol"`
	Multiplier    float64 `json:"multiplier"`
	Pnl           float64 `json:"pnl"`
	PnlPercent    float64 `json:"pnl_percent"`
}

func (PositionUpdated) Kind() Kind { return KindPositionUpdated }

// ActivityLogged 活动日志
type ActivityLogged struct {
	Activity models.Activity `json:"activity"`
}

func (ActivityLogged) Kind() Kind { return KindActivity }

// Bus 进程内事件总线，按事件类型订阅
type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	kinds map[Kind]struct{} // 空表示订阅全部
	ch    chan Event
}

// NewBus 创建事件总线
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]*subscription),
	}
}

// Subscribe 订阅指定类型的事件，不传类型则订阅全部。
// 返回的取消函数必须被调用，否则订阅会泄漏。
func (b *Bus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	sub := &subscription{
		kinds: make(map[Kind]struct{}, len(kinds)),
		ch:    make(chan Event, 64),
	}
	for _, k := range kinds {
		sub.kinds[k] = struct{}{}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
		b.mu.Unlock()
	}

	return sub.ch, cancel
}

// Publish 广播事件。慢消费者的事件会被丢弃而不是阻塞发布方。
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.kinds) > 0 {
			if _, ok := sub.kinds[event.Kind()]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("event dropped for slow subscriber",
				zap.String("kind", string(event.Kind())))
		}
	}
}
