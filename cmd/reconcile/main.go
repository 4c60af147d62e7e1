package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"carddeps/application/services"
	"carddeps/domain/core/valueobjects"
	"carddeps/infrastructure/config"
	"carddeps/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	file   string
	dryRun bool
	json   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reconcile [item-id...]",
		Short: "Check and repair dependency edges between items",
		Long: `Reconcile walks the given items and restores any missing reciprocal
edge. The dependsOn side is authoritative: a blocks entry without its
forward edge is dropped.

Item ids come from arguments, from --file (one per line), or both.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectIDs(args, opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("no item ids given")
			}
			return run(cmd.Context(), ids, opts, cmd.OutOrStdout())
		},
	}
	rootCmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read item ids from a file, - for stdin")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report issues without repairing them")
	rootCmd.Flags().BoolVar(&opts.json, "json", false, "Print machine-readable reports")

	return rootCmd
}

func run(ctx context.Context, ids []valueobjects.ItemID, opts *options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	// The item directory is fed by the API process; this one has none
	cfg.CheckReferences = false

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer cleanup()
	defer container.Logger.Sync()

	ctx, cancel := services.WithReconcileDeadline(ctx)
	defer cancel()

	reports, err := container.Reconciler.RepairAll(ctx, ids, opts.dryRun)
	if printErr := printReports(out, reports, opts.json); printErr != nil {
		return printErr
	}
	if err != nil {
		container.Logger.Error("Reconcile stopped", zap.Error(err))
		return err
	}
	return nil
}

// collectIDs merges argument ids with ids read from file, keeping first-seen order
func collectIDs(args []string, file string, stdin io.Reader) ([]valueobjects.ItemID, error) {
	raw := append([]string{}, args...)

	if file != "" {
		var r io.Reader = stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, fmt.Errorf("open id file: %w", err)
			}
			defer f.Close()
			r = f
		}
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read id file: %w", err)
		}
	}

	ids := make([]valueobjects.ItemID, 0, len(raw))
	for _, s := range valueobjects.Uniq(raw) {
		id, err := valueobjects.NewItemID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printReports(out io.Writer, reports []services.ConsistencyReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for _, report := range reports {
		if report.Consistent() {
			fmt.Fprintf(out, "%s: consistent\n", report.ItemID)
			continue
		}
		fmt.Fprintf(out, "%s: %d issue(s), %d repaired, %d failed\n",
			report.ItemID, len(report.Issues), len(report.Repaired), len(report.Failed))
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "  %s\n", issue)
		}
		for _, failure := range report.Failed {
			fmt.Fprintf(out, "  failed %s: %s\n", failure.Issue, failure.Error)
		}
	}
	return nil
}
