//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks -exclude_interfaces=ISupervisor,IOrchestrator
package contract

import (
	"context"
	"reflect"
	"time"

	"outmentor/domain"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ISubscription is a live, cancellable feed of one connection channel.
// Messages is closed once the subscription ends; Err then tells why.
// A nil Err means the consumer cancelled.
type ISubscription interface {
	Messages() <-chan domain.Message
	Done() <-chan struct{}
	Err() error
	// Touch records transport activity such as a heartbeat.
	Touch()
	Cancel()
}

// IHub fans out appended messages to the live subscribers of a connection.
type IHub interface {
	Publish(ctx context.Context, message domain.Message) (domain.Message, error)
	Subscribe(ctx context.Context, connectionID uuid.UUID) (ISubscription, error)
	ReapIdle(maxIdle time.Duration) int
	Stats() HubStats
}

type HubStats struct {
	Channels    int
	Subscribers int
	Queued      int
}

// MeetingLinkProvider issues the opaque join link of a meeting.
type MeetingLinkProvider interface {
	NewLink(ctx context.Context, connectionID uuid.UUID, at time.Time) (string, error)
}

type IOrchestrator interface {
	Hub() IHub
	Start(ctx context.Context) error
	Stop()
}
