// =============================================
// File: internal/scenario/scenario.go
// =============================================
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OperationType is one scripted step against a pool.
type OperationType string

const (
	OperationBuy     OperationType = "buy"
	OperationSell    OperationType = "sell"
	OperationMigrate OperationType = "migrate"
)

// DefaultTraderLamports funds every trader that does not set lamports.
const DefaultTraderLamports = 10_000_000_000

// Scenario is a set of independent pools, each replaying its own steps.
// Fees is nil when the file does not set it; zero is a valid fee.
type Scenario struct {
	Fees  *float64
	Pools []*Pool
}

// Pool describes one pool: its seed and the steps traded against it.
type Pool struct {
	Name    string
	Supply  uint64
	Traders map[string]uint64 // trader name to starting lamports
	Steps   []Step
}

// Step is one buy, sell or migrate. For a sell, Percent of the trader's
// holdings is used when Amount is zero.
type Step struct {
	Trader    string
	Operation OperationType
	Amount    uint64
	Percent   float64
}

type fileFormat struct {
	Fees  *float64 `yaml:"fees"`
	Pools []struct {
		Name    string `yaml:"name"`
		Supply  uint64 `yaml:"supply"`
		Traders []struct {
			Name     string `yaml:"name"`
			Lamports uint64 `yaml:"lamports"`
		} `yaml:"traders"`
		Steps []struct {
			Trader    string  `yaml:"trader"`
			Operation string  `yaml:"operation"`
			Amount    uint64  `yaml:"amount"`
			Percent   float64 `yaml:"percent"`
		} `yaml:"steps"`
	} `yaml:"pools"`
}

// Loader reads scenario files.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

func parseOperation(s string) (OperationType, error) {
	op := OperationType(s)
	switch op {
	case OperationBuy, OperationSell, OperationMigrate:
		return op, nil
	default:
		return "", fmt.Errorf("unsupported operation: %q", s)
	}
}

// LoadYAML reads the scenario at path. Invalid steps are skipped with a
// warning; a pool without a name or supply is an error.
func (l *Loader) LoadYAML(path string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes scenario YAML.
func (l *Loader) Parse(data []byte) (*Scenario, error) {
	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Pools) == 0 {
		return nil, fmt.Errorf("no pools found in scenario")
	}

	sc := &Scenario{Fees: file.Fees}
	seen := make(map[string]bool)
	for _, pd := range file.Pools {
		if pd.Name == "" || pd.Supply == 0 {
			return nil, fmt.Errorf("pool %q needs a name and a non-zero supply", pd.Name)
		}
		if seen[pd.Name] {
			return nil, fmt.Errorf("duplicate pool %q", pd.Name)
		}
		seen[pd.Name] = true

		p := &Pool{Name: pd.Name, Supply: pd.Supply, Traders: make(map[string]uint64)}
		for _, td := range pd.Traders {
			lamports := td.Lamports
			if lamports == 0 {
				lamports = DefaultTraderLamports
			}
			p.Traders[td.Name] = lamports
		}

		for i, sd := range pd.Steps {
			op, err := parseOperation(sd.Operation)
			if err != nil {
				l.logger.Warn("Skipping invalid step", zap.String("pool", pd.Name), zap.Int("step", i), zap.Error(err))
				continue
			}
			if sd.Trader == "" {
				l.logger.Warn("Skipping step without trader", zap.String("pool", pd.Name), zap.Int("step", i))
				continue
			}
			if op == OperationSell && sd.Amount == 0 && (sd.Percent <= 0 || sd.Percent > 100) {
				l.logger.Warn("Skipping sell without amount or percent", zap.String("pool", pd.Name), zap.Int("step", i))
				continue
			}
			if _, ok := p.Traders[sd.Trader]; !ok {
				p.Traders[sd.Trader] = DefaultTraderLamports
			}
			p.Steps = append(p.Steps, Step{
				Trader:    sd.Trader,
				Operation: op,
				Amount:    sd.Amount,
				Percent:   sd.Percent,
			})
		}
		sc.Pools = append(sc.Pools, p)
	}

	l.logger.Info("Loaded scenario", zap.Int("pools", len(sc.Pools)))
	return sc, nil
}
