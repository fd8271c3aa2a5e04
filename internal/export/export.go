// =============================
// File: internal/export/export.go
// =============================
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

// ExportFormat is the file format of an export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

var ErrNoTrades = errors.New("no trades match the export criteria")

// ExportOptions selects and formats the exported trades.
type ExportOptions struct {
	Format      ExportFormat
	StartTime   time.Time
	EndTime     time.Time
	MintFilter  string
	SideFilter  string // buy or sell
	OnlySuccess bool
	OutputDir   string
}

// TradeExporter writes stored trades to files.
type TradeExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{logger: logger, now: time.Now}
}

// ExportTrades writes the trades matching options in chronological order and
// returns the path of the written file.
func (te *TradeExporter) ExportTrades(trades []*models.Trade, options ExportOptions) (string, error) {
	filtered := te.filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", ErrNoTrades
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	outputPath := filepath.Join(options.OutputDir, te.generateFilename(options))
	if err := os.MkdirAll(options.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = te.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (te *TradeExporter) filterTrades(trades []*models.Trade, options ExportOptions) []*models.Trade {
	var filtered []*models.Trade
	for _, trade := range trades {
		if !options.StartTime.IsZero() && trade.CreatedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && trade.CreatedAt.After(options.EndTime) {
			continue
		}
		if options.MintFilter != "" && trade.Mint != options.MintFilter {
			continue
		}
		if options.SideFilter != "" && trade.Side != options.SideFilter {
			continue
		}
		if options.OnlySuccess && trade.Status != models.TradeStatusSuccess {
			continue
		}
		filtered = append(filtered, trade)
	}
	return filtered
}

func (te *TradeExporter) generateFilename(options ExportOptions) string {
	prefix := "trades_all"
	if options.SideFilter != "" {
		prefix = "trades_" + options.SideFilter
	}
	if len(options.MintFilter) >= 8 {
		prefix += "_" + options.MintFilter[:8]
	}
	return fmt.Sprintf("%s_%s.%s", prefix, te.now().Format("20060102_150405"), options.Format)
}

// CSVHeaders are the columns written by the CSV export.
func CSVHeaders() []string {
	return []string{
		"trade_id", "time", "pool", "mint", "trader", "side", "status",
		"amount_in", "amount_out", "reserve_token", "reserve_sol",
		"fee_percent", "error_code", "error", "execution_ms",
	}
}

func csvRecord(t *models.Trade) []string {
	code := ""
	if t.ErrorCode != 0 {
		code = strconv.FormatUint(uint64(t.ErrorCode), 10)
	}
	return []string{
		t.TradeID,
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		t.Pool,
		t.Mint,
		t.Trader,
		t.Side,
		t.Status,
		strconv.FormatUint(t.AmountIn, 10),
		strconv.FormatUint(t.AmountOut, 10),
		strconv.FormatUint(t.ReserveToken, 10),
		strconv.FormatUint(t.ReserveSol, 10),
		strconv.FormatFloat(t.FeePercent, 'f', -1, 64),
		code,
		t.ErrorMessage,
		strconv.FormatFloat(t.ExecutionTime, 'f', 3, 64),
	}
}

func (te *TradeExporter) exportToCSV(trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, trade := range trades {
		if err := writer.Write(csvRecord(trade)); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// jsonTrade is the exported shape of a trade.
type jsonTrade struct {
	TradeID      string    `json:"trade_id"`
	Time         time.Time `json:"time"`
	Pool         string    `json:"pool"`
	Mint         string    `json:"mint"`
	Trader       string    `json:"trader"`
	Side         string    `json:"side"`
	Status       string    `json:"status"`
	AmountIn     uint64    `json:"amount_in"`
	AmountOut    uint64    `json:"amount_out"`
	ReserveToken uint64    `json:"reserve_token"`
	ReserveSol   uint64    `json:"reserve_sol"`
	FeePercent   float64   `json:"fee_percent"`
	ErrorCode    uint32    `json:"error_code,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func (te *TradeExporter) exportToJSON(trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	out := make([]jsonTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, jsonTrade{
			TradeID:      t.TradeID,
			Time:         t.CreatedAt.UTC(),
			Pool:         t.Pool,
			Mint:         t.Mint,
			Trader:       t.Trader,
			Side:         t.Side,
			Status:       t.Status,
			AmountIn:     t.AmountIn,
			AmountOut:    t.AmountOut,
			ReserveToken: t.ReserveToken,
			ReserveSol:   t.ReserveSol,
			FeePercent:   t.FeePercent,
			ErrorCode:    t.ErrorCode,
			Error:        t.ErrorMessage,
		})
	}

	exportData := struct {
		ExportTime time.Time     `json:"export_time"`
		TradeCount int           `json:"trade_count"`
		Summary    ExportSummary `json:"summary"`
		Trades     []jsonTrade   `json:"trades"`
	}{
		ExportTime: te.now().UTC(),
		TradeCount: len(trades),
		Summary:    CalculateSummary(trades),
		Trades:     out,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary aggregates a set of trades. Volumes are in lamports.
type ExportSummary struct {
	TotalTrades      int       `json:"total_trades"`
	SuccessfulTrades int       `json:"successful_trades"`
	FailedTrades     int       `json:"failed_trades"`
	BuyCount         int       `json:"buy_count"`
	SellCount        int       `json:"sell_count"`
	UniqueMints      int       `json:"unique_mints"`
	UniqueTraders    int       `json:"unique_traders"`
	BuyVolume        uint64    `json:"buy_volume"`
	SellVolume       uint64    `json:"sell_volume"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
}

// CalculateSummary summarizes trades, which must be in chronological order.
// Only successful trades count toward volume.
func CalculateSummary(trades []*models.Trade) ExportSummary {
	summary := ExportSummary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return summary
	}
	summary.StartDate = trades[0].CreatedAt
	summary.EndDate = trades[len(trades)-1].CreatedAt

	mints := make(map[string]bool)
	traders := make(map[string]bool)
	for _, t := range trades {
		mints[t.Mint] = true
		traders[t.Trader] = true

		if t.Status != models.TradeStatusSuccess {
			summary.FailedTrades++
			continue
		}
		summary.SuccessfulTrades++
		switch t.Side {
		case models.SideBuy:
			summary.BuyCount++
			summary.BuyVolume += t.AmountIn
		case models.SideSell:
			summary.SellCount++
			summary.SellVolume += t.AmountOut
		}
	}
	summary.UniqueMints = len(mints)
	summary.UniqueTraders = len(traders)
	return summary
}
