package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage dataset checkpoints",
		Long: `Create, list, restore, and delete checkpoints of the local dataset.

A checkpoint is a consistent copy of the database file, taken before a
risky import or migration so the dataset can be rolled back.`,
	}

	cmd.AddCommand(checkpointCreateCmd())
	cmd.AddCommand(checkpointListCmd())
	cmd.AddCommand(checkpointRestoreCmd())
	cmd.AddCommand(checkpointDeleteCmd())

	return cmd
}

func checkpointCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [tag]",
		Short: "Create a checkpoint of the current dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tag := ""
			if len(args) > 0 {
				tag = args[0]
			}
			description, _ := cmd.Flags().GetString("description")

			cm, cleanup, err := initCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := cm.Create(ctx, tag, description)
			if err != nil {
				return fmt.Errorf("failed to create checkpoint: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Checkpoint %s created (%d transactions, %d snapshots)",
				info.ID, info.Transactions, info.Snapshots)))
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "Description of the checkpoint")

	return cmd
}

func checkpointListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cm, cleanup, err := initCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			checkpoints, err := cm.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list checkpoints: %w", err)
			}

			if len(checkpoints) == 0 {
				fmt.Println(cli.FormatInfo("No checkpoints yet"))
				return nil
			}

			var b strings.Builder
			for _, cp := range checkpoints {
				b.WriteString(fmt.Sprintf("%-24s %s  %d transactions, %d snapshots",
					cp.ID, cp.CreatedAt.Format("2006-01-02 15:04"), cp.Transactions, cp.Snapshots))
				if cp.Description != "" {
					b.WriteString("  " + cp.Description)
				}
				b.WriteString("\n")
			}
			fmt.Println(cli.RenderBox("Checkpoints", strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}
}

func checkpointRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <tag>",
		Short: "Restore the dataset from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, cleanup, err := initCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cm.Restore(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to restore checkpoint: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Dataset restored from checkpoint " + args[0]))
			return nil
		},
	}
}

func checkpointDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, cleanup, err := initCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cm.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete checkpoint: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Checkpoint " + args[0] + " deleted"))
			return nil
		},
	}
}

func initCheckpoints(cmd *cobra.Command) (*storage.CheckpointManager, func(), error) {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cm, err := store.Checkpoints()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return cm, func() { _ = store.Close() }, nil
}
