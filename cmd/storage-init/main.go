package main

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"github.com/kuzcou/plannerdig/config"
)

const queueAlreadyExists = "QueueAlreadyExists"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.ValidateStorage(); err != nil {
		log.Fatal(err)
	}
	log.Info("storage init starting")

	ctx := context.Background()
	if err := createTables(ctx, cfg.Storage.ConnectionString, cfg.Storage.Tables.Names()); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if cfg.Storage.ActivityQueue != "" {
		if err := createQueue(ctx, cfg.Storage.ConnectionString, cfg.Storage.ActivityQueue); err != nil {
			log.Fatalf("create queue: %v", err)
		}
	}
	log.Info("storage init complete")
}

func createTables(ctx context.Context, connStr string, names []string) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := svc.NewClient(name).CreateTable(ctx, nil); err != nil && !alreadyExists(err, string(aztables.TableAlreadyExists)) {
			return err
		}
		log.WithField("table", name).Debug("table ready")
	}
	return nil
}

func createQueue(ctx context.Context, connStr, name string) error {
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
	if err != nil {
		return err
	}
	if _, err := q.Create(ctx, nil); err != nil && !alreadyExists(err, queueAlreadyExists) {
		return err
	}
	log.WithField("queue", name).Debug("queue ready")
	return nil
}

// alreadyExists reports whether err is the service's "already exists" reply.
func alreadyExists(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}
