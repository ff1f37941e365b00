package main

import (
	"io"

	"github.com/alanwang67/kvsbench/results"
	"github.com/alanwang67/kvsbench/runner"
	"github.com/alanwang67/kvsbench/sweep"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func (a *app) driver(store *results.Store, progress io.Writer) *sweep.Driver {
	ctl := runner.NewController(
		runner.NewScriptLauncher(a.cfg.ClusterScript, a.cfg.ClusterDir),
		a.cfg.LogDir,
		a.cfg.LaunchMargin,
		a.cfg.Barrier(),
		a.cfg.MedianWindow,
	)
	return sweep.NewDriver(ctl, store, a.cfg.Cooldown, progress)
}

func newThetaCmd(a *app) *cobra.Command {
	var (
		workloads string
		thetas    []float64
		topo      sweep.Topology
	)
	cmd := &cobra.Command{
		Use:   "theta",
		Short: "Sweep workloads against Zipfian skew and record commit/abort rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireScript(); err != nil {
				return err
			}
			names, err := workload.ParseList(workloads)
			if err != nil {
				return err
			}
			for _, n := range names {
				if !n.IsKnown() {
					log.Warn("unknown workload, passing it to the client as is", "workload", n)
				}
			}
			for _, th := range thetas {
				if err := workload.ValidateTheta(th); err != nil {
					return err
				}
			}

			store := results.NewStore(a.cfg.ResultsDir)
			sw, err := a.driver(store, cmd.OutOrStdout()).Run(cmd.Context(), "theta_analysis", sweep.Product(names, thetas, topo))

			rows := make([]results.Row, 0, len(sw.Results))
			for _, r := range sw.Results {
				rows = append(rows, results.ToRow(r))
			}
			out := cmd.OutOrStdout()
			results.WriteThetaTable(out, rows)
			results.WriteTotals(out, sweep.Summarize(sw.Results))
			if err != nil {
				return err
			}
			log.Info("theta sweep complete", "results", store.LastPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&workloads, "workloads", "YCSB-A,YCSB-B", "comma separated workloads")
	f.Float64SliceVar(&thetas, "thetas", sweep.DefaultThetas, "theta values to sweep")
	f.IntVar(&topo.Servers, "servers", 1, "servers per trial")
	f.IntVar(&topo.Clients, "clients", 3, "clients per trial")
	f.IntVar(&topo.DurationSecs, "secs", 30, "seconds per trial")
	return cmd
}

func newBankCmd(a *app) *cobra.Command {
	var secs int
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Run the bank transfer matrix and verify money conservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireScript(); err != nil {
				return err
			}
			store := results.NewStore(a.cfg.ResultsDir)
			sw, err := a.driver(store, cmd.OutOrStdout()).Run(cmd.Context(), "bank_transfer_results", sweep.BankMatrix(secs))

			results.WriteSweepReport(cmd.OutOrStdout(), "Bank Transfer Test Summary Report", sw.Results)
			if err != nil {
				return err
			}
			if t := sweep.Summarize(sw.Results); t.Findings > 0 {
				log.Error("integrity findings", "findings", t.Findings, "violations", t.Violations, "runs", t.Runs)
			}
			log.Info("bank sweep complete", "results", store.LastPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&secs, "secs", 30, "seconds per trial")
	return cmd
}
