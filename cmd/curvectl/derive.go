package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/pumpcurve/internal/program"
)

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the pool accounts of a mint",
		RunE:  runDerive,
	}
	cmd.Flags().String("program", "", "program id, defaults to the configured one")
	cmd.Flags().String("mint", "", "token mint")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}

func runDerive(cmd *cobra.Command, _ []string) error {
	programStr, _ := cmd.Flags().GetString("program")
	if programStr == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		programStr = cfg.ProgramID
	}
	programID, err := solana.PublicKeyFromBase58(programStr)
	if err != nil {
		return fmt.Errorf("invalid program id: %w", err)
	}
	mintStr, _ := cmd.Flags().GetString("mint")
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return fmt.Errorf("invalid mint: %w", err)
	}

	acc, err := program.DerivePoolAccounts(programID, mint)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "configuration:      %s\n", acc.Configuration)
	fmt.Fprintf(out, "global:             %s\n", acc.Global)
	fmt.Fprintf(out, "pool:               %s (bump %d)\n", acc.Pool, acc.PoolBump)
	fmt.Fprintf(out, "sol vault:          %s (bump %d)\n", acc.SolVault, acc.SolVaultBump)
	fmt.Fprintf(out, "pool token account: %s\n", acc.PoolTokenAccount)
	return nil
}
