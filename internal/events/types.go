// internal/events/types.go
package events

import (
	"time"
)

// EventType names a pool lifecycle or trade event.
type EventType string

const (
	PoolCreated   EventType = "pool.created"
	PoolSeeded    EventType = "pool.seeded"
	PoolMigrated  EventType = "pool.migrated"
	TradeExecuted EventType = "trade.executed"
	TradeFailed   EventType = "trade.failed"
)

// Event is implemented by every published event.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current UTC time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

func (e BaseEvent) Type() EventType {
	return e.EventType
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// PoolCreatedEvent is emitted when an unseeded pool account is created.
type PoolCreatedEvent struct {
	BaseEvent
	Pool    string
	Mint    string
	Creator string
}

// PoolSeededEvent is emitted once liquidity has been added.
type PoolSeededEvent struct {
	BaseEvent
	Pool         string
	Mint         string
	TotalSupply  uint64
	ReserveToken uint64
	ReserveSol   uint64
}

// TradeExecutedEvent is emitted after a buy or sell commits.
type TradeExecutedEvent struct {
	BaseEvent
	TradeID      string
	Pool         string
	Mint         string
	Trader       string
	Side         string
	AmountIn     uint64
	AmountOut    uint64
	ReserveToken uint64
	ReserveSol   uint64
	SpotPrice    float64 // lamports per token base unit after the trade
}

// TradeFailedEvent is emitted when a buy or sell is rejected or rolled back.
type TradeFailedEvent struct {
	BaseEvent
	TradeID  string
	Pool     string
	Mint     string
	Trader   string
	Side     string
	AmountIn uint64
	Err      error
}

// PoolMigratedEvent is emitted after a pool's liquidity has been withdrawn.
type PoolMigratedEvent struct {
	BaseEvent
	Pool        string
	Mint        string
	Destination string
	Tokens      uint64
	Lamports    uint64
}
