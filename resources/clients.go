package resources

import (
	"context"

	"github.com/s0up4200/tokenmgmt/models"
)

// PathClients is the base path of the API client endpoints
const PathClients = "api/secured/clients"

// ClientResource manages API clients with plain REST verbs
type ClientResource struct {
	r Requester
}

// NewClientResource creates a ClientResource on top of r
func NewClientResource(r Requester) *ClientResource {
	return &ClientResource{r: r}
}

func (c *ClientResource) List(ctx context.Context, filters models.Record) (models.Payload, error) {
	env, err := c.r.Get(ctx, PathClients, filters)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

func (c *ClientResource) Get(ctx context.Context, id int64) (models.Payload, error) {
	env, err := c.r.Get(ctx, join(PathClients, id), nil)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

func (c *ClientResource) Create(ctx context.Context, data models.Record) (models.Payload, error) {
	env, err := c.r.Post(ctx, PathClients, data)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

func (c *ClientResource) Update(ctx context.Context, id int64, data models.Record) (models.Payload, error) {
	env, err := c.r.Put(ctx, join(PathClients, id), data)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// Delete removes a client and returns the full response body
func (c *ClientResource) Delete(ctx context.Context, id int64) (models.Payload, error) {
	env, err := c.r.Delete(ctx, join(PathClients, id))
	if err != nil {
		return models.Payload{}, err
	}
	return bodyOf(env), nil
}
