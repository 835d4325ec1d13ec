package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/kuzcou/plannerdig/domain"
)

// Tables names the table backing each record type.
type Tables struct {
	Tasks           string `yaml:"tasks"`
	Boards          string `yaml:"boards"`
	Users           string `yaml:"users"`
	DiaryEntries    string `yaml:"diaryEntries"`
	DiaryCategories string `yaml:"diaryCategories"`
}

// Names returns the configured table names in a fixed order.
func (t Tables) Names() []string {
	return []string{t.Tasks, t.Boards, t.Users, t.DiaryEntries, t.DiaryCategories}
}

// Storage provides access to the hosted record store. Every record is
// partitioned by the workspace (the authenticated user id) and keyed by its
// own id.
type Storage struct {
	taskTable     *aztables.Client
	boardTable    *aztables.Client
	userTable     *aztables.Client
	entryTable    *aztables.Client
	categoryTable *aztables.Client
	activityQueue *azqueue.QueueClient

	now func() time.Time
}

var retryStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// New creates a Storage instance from the given connection string. The
// activity queue is optional.
func New(connStr string, tables Tables, activityQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   retryStatusCodes,
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		taskTable:     svc.NewClient(tables.Tasks),
		boardTable:    svc.NewClient(tables.Boards),
		userTable:     svc.NewClient(tables.Users),
		entryTable:    svc.NewClient(tables.DiaryEntries),
		categoryTable: svc.NewClient(tables.DiaryCategories),
		now:           func() time.Time { return time.Now().UTC() },
	}
	if activityQueue != "" {
		queueClientOptions := azqueue.ClientOptions{
			ClientOptions: azcore.ClientOptions{
				Retry: policy.RetryOptions{
					MaxRetries:    5,
					TryTimeout:    time.Minute * 5,
					RetryDelay:    time.Second * 1,
					MaxRetryDelay: time.Second * 60,
					StatusCodes:   retryStatusCodes,
				},
			},
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, activityQueue, &queueClientOptions)
		if err != nil {
			return nil, err
		}
		s.activityQueue = q
	}
	return s, nil
}

// partitionFilter builds an OData filter for one workspace plus optional
// string equality predicates on stored fields.
func partitionFilter(userID string, eq ...string) string {
	var b strings.Builder
	b.WriteString("PartitionKey eq ")
	b.WriteString(quoteOData(userID))
	for i := 0; i+1 < len(eq); i += 2 {
		b.WriteString(" and ")
		b.WriteString(eq[i])
		b.WriteString(" eq ")
		b.WriteString(quoteOData(eq[i+1]))
	}
	return b.String()
}

func quoteOData(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func listEntities[T any](ctx context.Context, client *aztables.Client, filter string, decode func([]byte) (T, error)) ([]T, error) {
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	out := []T{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			v, err := decode(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func getEntity[T any](ctx context.Context, client *aztables.Client, pk, rk string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	resp, err := client.GetEntity(ctx, pk, rk, nil)
	if err != nil {
		return zero, mapError(err)
	}
	return decode(resp.Value)
}

func addEntity(ctx context.Context, client *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = client.AddEntity(ctx, payload, nil)
	return mapError(err)
}

func mergeEntity(ctx context.Context, client *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return mapError(err)
}

func deleteEntity(ctx context.Context, client *aztables.Client, pk, rk string) error {
	_, err := client.DeleteEntity(ctx, pk, rk, nil)
	return mapError(err)
}

// mapError translates a missing entity into domain.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}
