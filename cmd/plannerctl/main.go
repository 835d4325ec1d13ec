package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/kuzcou/plannerdig/config"
	"github.com/kuzcou/plannerdig/domain"
	"github.com/kuzcou/plannerdig/storage"
)

// taskSource is the slice of the store the CLI reads from.
type taskSource interface {
	ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error)
}

type options struct {
	configPath string
	workspace  string
	board      string
	jsonOutput bool

	// open is swapped in tests.
	open func(o *options) (taskSource, error)
}

func openStore(o *options) (taskSource, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	return storage.New(cfg.Storage.ConnectionString, cfg.Storage.Tables, "")
}

func (o *options) tasks(ctx context.Context) ([]domain.Task, error) {
	src, err := o.open(o)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"workspace": o.workspace, "board": o.board}).Debug("loading tasks")
	return src.ListTasks(ctx, o.workspace, o.board)
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Board reports and CSV exports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "YAML config file (defaults to $"+config.EnvFile+")")
	root.PersistentFlags().StringVar(&o.workspace, "workspace", "", "workspace (user id) owning the board")
	root.PersistentFlags().StringVar(&o.board, "board", "", "board id")
	root.PersistentFlags().BoolVar(&o.jsonOutput, "json", false, "print JSON instead of text")
	_ = root.MarkPersistentFlagRequired("workspace")
	_ = root.MarkPersistentFlagRequired("board")

	root.AddCommand(reportCmd(o), exportCmd(o))
	return root
}

func main() {
	o := &options{open: openStore}
	if err := newRootCmd(o).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
