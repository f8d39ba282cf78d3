package resources

import (
	"context"

	"github.com/s0up4200/tokenmgmt/api"
)

// Requester defines the gateway operations the facades build on
type Requester interface {
	Get(ctx context.Context, path string, query map[string]any) (*api.Envelope, error)
	Post(ctx context.Context, path string, body map[string]any) (*api.Envelope, error)
	Put(ctx context.Context, path string, body map[string]any) (*api.Envelope, error)
	Delete(ctx context.Context, path string) (*api.Envelope, error)
}

// Ensure the gateway client implements Requester
var _ Requester = (*api.Client)(nil)
