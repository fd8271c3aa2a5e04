package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/utils/amount"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade against given reserves",
	}

	buy := &cobra.Command{
		Use:   "buy",
		Short: "Quote the tokens received for a lamport amount",
		RunE:  runQuoteBuy,
	}
	sell := &cobra.Command{
		Use:   "sell",
		Short: "Quote the lamports received for a token amount",
		RunE:  runQuoteSell,
	}
	for _, c := range []*cobra.Command{buy, sell} {
		c.Flags().Uint64("total-supply", curve.TotalSupplyScaled, "seeded token supply in base units")
		c.Flags().Uint64("reserve-token", curve.TotalSupplyScaled, "token reserve in base units")
		c.Flags().Uint64("reserve-sol", curve.InitialLamportsForPool, "SOL reserve in lamports")
		c.Flags().Uint64("amount", 0, "trade amount in base units")
	}
	buy.Flags().String("sol", "", "trade amount in SOL, overrides --amount")

	cmd.AddCommand(buy, sell)
	return cmd
}

func reservesFromFlags(cmd *cobra.Command) curve.Reserves {
	total, _ := cmd.Flags().GetUint64("total-supply")
	token, _ := cmd.Flags().GetUint64("reserve-token")
	sol, _ := cmd.Flags().GetUint64("reserve-sol")
	return curve.Reserves{TotalSupply: total, ReserveToken: token, ReserveSol: sol}
}

func runQuoteBuy(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetUint64("amount")
	if s, _ := cmd.Flags().GetString("sol"); s != "" {
		lamports, err := amount.ParseSOL(s)
		if err != nil {
			return err
		}
		in = lamports
	}

	q, err := curve.QuoteBuy(reservesFromFlags(cmd), in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "paid:          %s\n", amount.SOL(q.AmountIn))
	fmt.Fprintf(out, "tokens out:    %d (%s)\n", q.TokensOut, amount.Tokens(q.TokensOut))
	printReserves(cmd, q.After)
	return nil
}

func runQuoteSell(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetUint64("amount")
	q, err := curve.QuoteSell(reservesFromFlags(cmd), in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sold:          %d (%s)\n", q.AmountIn, amount.Tokens(q.AmountIn))
	fmt.Fprintf(out, "sol out:       %d (%s)\n", q.SolOut, amount.SOL(q.SolOut))
	printReserves(cmd, q.After)
	return nil
}

func printReserves(cmd *cobra.Command, r curve.Reserves) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reserve token: %d\n", r.ReserveToken)
	fmt.Fprintf(out, "reserve sol:   %d\n", r.ReserveSol)
	if price, err := curve.SpotPrice(r); err == nil {
		fmt.Fprintf(out, "spot price:    %.12g lamports/unit\n", price)
	}
	fmt.Fprintf(out, "progress:      %.4f%%\n", curve.Progress(r)*100)
}
