package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/kuzcou/plannerdig/export"
	"github.com/kuzcou/plannerdig/report"
)

// exportCmd implements 'plannerctl export <kind>'.
func exportCmd(o *options) *cobra.Command {
	var (
		assignee string
		dir      string
	)
	cmd := &cobra.Command{
		Use:       "export user|board|detailed",
		Short:     "Write a CSV export of the board",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.KindUser), string(export.KindBoard), string(export.KindDetailed)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return err
			}
			tasks, err := o.tasks(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := export.Render(kind, tasks, assignee, time.Now())
			if err != nil {
				return err
			}
			path, err := writeDocument(dir, doc)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"kind": kind, "tasks": len(tasks)}).Debug("export written")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", report.AssigneeAll, "narrow user and detailed exports to one assignee")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the file to")
	return cmd
}

func writeDocument(dir string, doc export.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, []byte(doc.Body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
