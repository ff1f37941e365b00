package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/alanwang67/kvsbench/charts"
	"github.com/alanwang67/kvsbench/logparse"
	"github.com/alanwang67/kvsbench/results"
	"github.com/alanwang67/kvsbench/stats"
	"github.com/alanwang67/kvsbench/verify"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the throughput and transfer logs of an existing run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.LogDir
			}
			out := cmd.OutOrStdout()

			servers, err := logparse.ListLogs(dir, logparse.Server)
			if err != nil {
				return err
			}
			clients, err := logparse.ListLogs(dir, logparse.Client)
			if err != nil {
				return err
			}
			if len(servers) == 0 && len(clients) == 0 {
				fmt.Fprintln(out, "No matching log files found.")
				return nil
			}

			var procs []logparse.ProcessLog
			for _, f := range servers {
				pl, err := logparse.ExtractFile(f.NodeID, f.Path)
				if err != nil {
					log.Warnf("skipping %s: %v", f.Path, err)
					continue
				}
				procs = append(procs, pl)
			}
			if len(procs) > 0 {
				results.WriteNodeReport(out, procs, stats.NewAggregator(a.cfg.MedianWindow).Aggregate(procs))
			}

			var reports []verify.ClientReport
			for _, f := range clients {
				rep, err := verify.CheckFile(f.NodeID, f.Path)
				if err != nil {
					log.Warnf("skipping %s: %v", f.Path, err)
					continue
				}
				reports = append(reports, rep)
			}
			if len(reports) > 0 {
				st := verify.Merge(reports)
				fmt.Fprintf(out, "\ntransfers %d ok, %d failed, %d balance checks\n", st.Success, st.Failure, st.BalanceChecks)
				fmt.Fprintf(out, "final balances %s (from %s)\n", results.FormatBalances(st.FinalBalances), st.FinalSource)
				for _, f := range st.Findings {
					fmt.Fprintf(out, "FINDING %s\n", f)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "log directory (default log_dir)")
	return cmd
}

// latestThetaCSV picks the newest theta_analysis_<unix>.csv in dir.
func latestThetaCSV(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "theta_analysis_*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.Newf("no theta analysis CSV files in %s; run `kvsbench theta` first", dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func newPlotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plot [csv]",
		Short: "Render theta analysis charts and the summary table from a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := latestThetaCSV(a.cfg.ResultsDir)
				if err != nil {
					return err
				}
				log.Info("using most recent dataset", "path", p)
				path = p
			}

			rows, err := results.ReadCSV(path)
			if err != nil {
				return err
			}
			if _, err := charts.Render(path, rows); err != nil {
				return err
			}
			results.WriteThetaTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}
