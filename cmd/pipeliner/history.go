package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/elitr/pipeliner/pkg/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the record of past pipeline runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded pipeline runs, most recent first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full record of one pipeline run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().String("data-dir", ".", "directory holding the run history ledger")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	hist, err := history.Open(dataDir)
	if err != nil {
		return err
	}
	defer hist.Close()

	runs, err := hist.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tSTARTED\tENDED\tMANIFEST\tSTATUS")
	for _, r := range runs {
		status := "ok"
		if r.Err != "" {
			status = "error: " + r.Err
		} else if r.EndedAt.IsZero() {
			status = "running"
		}
		ended := "-"
		if !r.EndedAt.IsZero() {
			ended = r.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), ended, r.Manifest, status)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	hist, err := history.Open(dataDir)
	if err != nil {
		return err
	}
	defer hist.Close()

	run, err := hist.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("id:        %s\n", run.ID)
	fmt.Printf("manifest:  %s\n", run.Manifest)
	fmt.Printf("hostname:  %s\n", run.Hostname)
	fmt.Printf("started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.EndedAt.IsZero() {
		fmt.Printf("ended:     %s\n", run.EndedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("log dir:   %s\n", run.LogDir)
	if run.Err != "" {
		fmt.Printf("error:     %s\n", run.Err)
	}
	fmt.Println("entrypoints:")
	for node, ep := range run.Entrypoints {
		fmt.Printf("  %s -> %d\n", node, ep)
	}
	return nil
}
