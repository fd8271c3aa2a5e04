package main

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/pool"
	"github.com/rovshanmuradov/pumpcurve/internal/program"
	"github.com/rovshanmuradov/pumpcurve/internal/utils/amount"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode base64 account or instruction data, or a program error code",
		RunE:  runDecode,
	}
	cmd.Flags().String("data", "", "base64 encoded bytes")
	cmd.Flags().Uint32("code", 0, "custom program error code, e.g. 6005")
	cmd.MarkFlagsOneRequired("data", "code")
	cmd.MarkFlagsMutuallyExclusive("data", "code")
	return cmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("code") {
		code, _ := cmd.Flags().GetUint32("code")
		e, ok := curve.ErrorByCode(code)
		if !ok {
			return fmt.Errorf("unknown error code %d", code)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "error:         %s\n", e.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "code:          %d\n", e.Code)
		fmt.Fprintf(cmd.OutOrStdout(), "message:       %s\n", e.Msg)
		return nil
	}

	s, _ := cmd.Flags().GetString("data")
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid base64: %w", err)
	}
	out := cmd.OutOrStdout()

	if len(data) >= 8 && bytes.Equal(data[:8], pool.PoolDiscriminator[:]) {
		p, err := pool.Decode(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "account:       LiquidityPool")
		fmt.Fprintf(out, "creator:       %s\n", p.Creator)
		fmt.Fprintf(out, "token:         %s\n", p.Token)
		fmt.Fprintf(out, "total supply:  %s\n", amount.Tokens(p.TotalSupply))
		fmt.Fprintf(out, "reserve token: %s\n", amount.Tokens(p.ReserveToken))
		fmt.Fprintf(out, "reserve sol:   %s\n", amount.SOL(p.ReserveSol))
		fmt.Fprintf(out, "bump:          %d\n", p.Bump)
		return nil
	}

	if cfg, err := config.DecodeCurveConfiguration(data); err == nil {
		fmt.Fprintln(out, "account:       CurveConfiguration")
		fmt.Fprintf(out, "fees:          %g%%\n", cfg.FeePercent())
		return nil
	}

	ix, err := program.Decode(data)
	if err != nil {
		return fmt.Errorf("unrecognized data: %w", err)
	}
	fmt.Fprintf(out, "instruction:   %s\n", ix.Name())
	fmt.Fprintf(out, "args:          %+v\n", ix)
	return nil
}
