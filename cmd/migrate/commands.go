package main

import (
	"fmt"

	"schemarunner/internal/migration"

	"github.com/spf13/cobra"
)

func newUpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "up [FILE]",
		Short: "Apply every step in order",
		Long: `Apply every step in order on a single connection. Steps whose object
already exists are skipped; any other failure stops the run and exits 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, steps, err := a.loadSteps(args)
			if err != nil {
				return err
			}

			engine, closer, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			report, err := engine.Up(cmd.Context(), source, steps)
			if report != nil {
				printReport(cmd.OutOrStdout(), report, len(steps), err)
			}
			return err
		},
	}
}

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [FILE]",
		Short: "Validate and list steps without touching the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, scripts, err := a.loadScripts(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", source)
			for _, sc := range scripts {
				fmt.Fprintf(out, "Script: %s (md5 %s)\n", sc.Path, sc.Checksum)
			}
			steps := migration.StepsOf(scripts)
			printPlan(out, steps)

			return migration.Validate(steps, a.cfg.AllowDangerous)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [FILE]",
		Short: "Show which step objects already exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, steps, err := a.loadSteps(args)
			if err != nil {
				return err
			}

			// status must not create a missing database file
			if a.cfg.UsesFile() && !a.cfg.DatabaseExists() {
				return fmt.Errorf("database %s does not exist", a.cfg.DatabasePath)
			}

			engine, closer, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			statuses, err := engine.Status(cmd.Context(), steps)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
}
