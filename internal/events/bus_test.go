package events

import (
	"testing"

	"github.com/dushixiang/solsnipe/internal/models"
	"go.uber.org/zap"
)

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(zap.NewNop())
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(TokenDiscovered{Token: models.Token{Address: "mint1"}})
	bus.Publish(TradeBlocked{WalletAddress: "w", Reason: "nope"})

	first := <-ch
	if first.Kind() != KindTokenDiscovered {
		t.Fatalf("expected %s, got %s", KindTokenDiscovered, first.Kind())
	}
	second := <-ch
	if second.Kind() != KindTradeBlocked {
		t.Fatalf("expected %s, got %s", KindTradeBlocked, second.Kind())
	}
}

func TestBus_SubscribeFiltered(t *testing.T) {
	bus := NewBus(zap.NewNop())
	ch, cancel := bus.Subscribe(KindTradeExecuted)
	defer cancel()

	bus.Publish(TokenDiscovered{Token: models.Token{Address: "mint1"}})
	bus.Publish(TradeExecuted{Trade: models.Trade{ID: "t1"}})

	event := <-ch
	if event.Kind() != KindTradeExecuted {
		t.Fatalf("expected %s, got %s", KindTradeExecuted, event.Kind())
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.Kind())
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus(zap.NewNop())
	ch, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// publishing after cancel must not panic
	bus.Publish(TradeBlocked{WalletAddress: "w", Reason: "late"})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(zap.NewNop())
	_, cancel := bus.Subscribe()
	defer cancel()

	// channel buffer is 64; overflow must drop, not deadlock
	for i := 0; i < 200; i++ {
		bus.Publish(TradeBlocked{WalletAddress: "w", Reason: "spam"})
	}
}
