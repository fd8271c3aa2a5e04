// =============================================
// File: internal/ui/report.go
// =============================================
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/pumpcurve/internal/monitor"
	"github.com/rovshanmuradov/pumpcurve/internal/scenario"
	"github.com/rovshanmuradov/pumpcurve/internal/ui/style"
	"github.com/rovshanmuradov/pumpcurve/internal/utils/amount"
)

// RenderReport renders a scenario report as one box per pool.
func RenderReport(r *scenario.Report) string {
	st := style.NewReportStyles(style.DefaultPalette())
	boxes := make([]string, 0, len(r.Pools))
	for _, p := range r.Pools {
		boxes = append(boxes, st.Container.Render(renderPool(st, p)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func renderPool(st style.ReportStyles, p *scenario.PoolReport) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(p.Name))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(st.Label.Render(label))
		b.WriteString(st.Value.Render(value))
		b.WriteString("\n")
	}
	row("mint", p.Mint.String())
	if p.Final != nil {
		row("pool", p.Final.Addresses.Pool.String())
		row("reserve tokens", amount.Tokens(p.Final.Pool.ReserveToken))
		row("reserve sol", amount.SOL(p.Final.Pool.ReserveSol))
		row("progress", fmt.Sprintf("%.4f%%", p.Final.Progress*100))
		row("migrated", fmt.Sprintf("%t", p.Final.Migrated))
	}
	row("steps", fmt.Sprintf("%d (%d rejected)", len(p.Steps), p.Failures()))

	b.WriteString("\n")
	for _, s := range p.Steps {
		b.WriteString(renderStep(st, s))
		b.WriteString("\n")
	}

	names := make([]string, 0, len(p.Lamports))
	for name := range p.Lamports {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString("\n")
	}
	for _, name := range names {
		row(name, fmt.Sprintf("%s, %s tokens", amount.SOL(p.Lamports[name]), amount.Tokens(p.Tokens[name])))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStep(st style.ReportStyles, s scenario.StepResult) string {
	op := string(s.Operation)
	switch s.Operation {
	case scenario.OperationBuy:
		op = st.Buy.Render(op)
	case scenario.OperationSell:
		op = st.Sell.Render(op)
	case scenario.OperationMigrate:
		op = st.Migrate.Render(op)
	}

	if s.Err != nil {
		return fmt.Sprintf("%-8s %s %s", op, s.Trader, st.Failed.Render("rejected: "+s.Err.Error()))
	}
	switch {
	case s.Trade != nil && s.Operation == scenario.OperationBuy:
		return fmt.Sprintf("%-8s %s paid %s for %s tokens", op, s.Trader, amount.SOL(s.Trade.AmountIn), amount.Tokens(s.Trade.AmountOut))
	case s.Trade != nil:
		return fmt.Sprintf("%-8s %s sold %s tokens for %s", op, s.Trader, amount.Tokens(s.Trade.AmountIn), amount.SOL(s.Trade.AmountOut))
	case s.Migration != nil:
		return fmt.Sprintf("%-8s %s received %s tokens and %s", op, s.Trader,
			amount.Tokens(s.Migration.Withdrawal.Tokens), amount.SOL(s.Migration.Withdrawal.Lamports))
	}
	return fmt.Sprintf("%-8s %s", op, s.Trader)
}

// RenderPrices renders one line per pool with its price movement.
func RenderPrices(stats []monitor.PriceStats) string {
	st := style.NewReportStyles(style.DefaultPalette())
	var b strings.Builder
	b.WriteString(st.Title.Render("prices (lamports per token unit)"))
	for _, s := range stats {
		change := st.Buy.Render(fmt.Sprintf("%+.2f%%", s.Percent))
		if s.Percent < 0 {
			change = st.Sell.Render(fmt.Sprintf("%+.2f%%", s.Percent))
		}
		fmt.Fprintf(&b, "\n%s %.6g -> %.6g %s (high %.6g, low %.6g, %d trades, volume %s)",
			st.Label.Render(shorten(s.Mint)), s.Initial, s.Current, change, s.High, s.Low, s.Trades, amount.SOL(s.Volume))
	}
	return st.Container.Render(b.String())
}

// RenderPriceUpdate renders a single live price line.
func RenderPriceUpdate(u monitor.PriceUpdate) string {
	st := style.NewReportStyles(style.DefaultPalette())
	change := st.Buy.Render(fmt.Sprintf("%+.2f%%", u.Percent))
	if u.Percent < 0 {
		change = st.Sell.Render(fmt.Sprintf("%+.2f%%", u.Percent))
	}
	return fmt.Sprintf("%s %s price %.6g %s",
		u.Time.Format("15:04:05.000"), st.Label.Render(shorten(u.Mint)), u.Current, change)
}

func shorten(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}
