package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/kuzcou/plannerdig/report"
)

// reportCmd implements 'plannerctl report'.
func reportCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print board metrics",
	}
	cmd.AddCommand(reportUserCmd(o), reportBoardCmd(o))
	return cmd
}

func reportUserCmd(o *options) *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Progress of one assignee, or of everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := o.tasks(cmd.Context())
			if err != nil {
				return err
			}
			r := report.User(tasks, assignee, time.Now())
			if o.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return writeUserReport(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", report.AssigneeAll, "assignee email or \"all\"")
	return cmd
}

func reportBoardCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Status distribution and bottlenecks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := o.tasks(cmd.Context())
			if err != nil {
				return err
			}
			p := report.Performance(tasks)
			if o.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			return writeBoardReport(cmd.OutOrStdout(), p)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeUserReport(w io.Writer, r report.UserReport) error {
	_, err := fmt.Fprintf(w,
		"Total:       %d\nCompleted:   %d\nIn progress: %d\nPending:     %d\nIn review:   %d\nOverdue:     %d\nCompletion:  %d%%\n",
		r.Total, r.Completed, r.InProgress, r.Pending, r.Review, r.Overdue, r.CompletionRate)
	return err
}

func writeBoardReport(w io.Writer, p report.BoardPerformance) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Total tasks: %d\n", p.TotalTasks)
	for _, s := range p.Shares() {
		mark := ""
		if s.Bottleneck {
			mark = "  <- bottleneck"
		}
		fmt.Fprintf(&b, "%-12s %3d  %3d%%%s\n", s.Status.Label(), s.Count, s.Percent, mark)
	}
	fmt.Fprintf(&b, "Avg completion: %d days\n", p.AvgCompletionDays)
	if len(p.Bottlenecks) == 0 {
		b.WriteString("Bottlenecks: none\n")
	} else {
		labels := make([]string, len(p.Bottlenecks))
		for i, s := range p.Bottlenecks {
			labels[i] = s.Label()
		}
		fmt.Fprintf(&b, "Bottlenecks: %s\n", strings.Join(labels, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
