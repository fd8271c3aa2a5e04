// internal/storage/models/migration.go
package models

// Migration records the withdrawal of a pool's liquidity to its migration target.
type Migration struct {
	BaseModel
	Pool        string `gorm:"unique;not null;type:varchar(44)"`
	Mint        string `gorm:"index;not null;type:varchar(44)"`
	Destination string `gorm:"not null;type:varchar(44)"`
	Tokens      uint64 `gorm:"not null"`
	Lamports    uint64 `gorm:"not null"`
	Nonce       uint8
	OpenTime    uint64
}
