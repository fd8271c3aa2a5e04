// internal/storage/models/trade.go
package models

const (
	SideBuy  = "buy"
	SideSell = "sell"

	TradeStatusSuccess = "success"
	TradeStatusFailed  = "failed"
)

// Trade records one buy or sell attempt. Failed attempts carry the error and
// the reserves the pool had before the attempt.
type Trade struct {
	BaseModel
	TradeID       string  `gorm:"unique;not null;type:varchar(36)"`
	Pool          string  `gorm:"index;not null;type:varchar(44)"`
	Mint          string  `gorm:"index;not null;type:varchar(44)"`
	Trader        string  `gorm:"index;not null;type:varchar(44)"`
	Side          string  `gorm:"not null;type:varchar(4)"`
	AmountIn      uint64  `gorm:"not null"`
	AmountOut     uint64  `gorm:"not null;default:0"`
	ReserveToken  uint64  `gorm:"not null"`
	ReserveSol    uint64  `gorm:"not null"`
	FeePercent    float64 `gorm:"type:decimal(6,3);not null"`
	Status        string  `gorm:"not null;type:varchar(20)"`
	ErrorCode     uint32  `gorm:"default:0"`
	ErrorMessage  string  `gorm:"type:text"`
	ExecutionTime float64 `gorm:"type:decimal(10,3)"`
}
