package resources

import (
	"context"

	"github.com/s0up4200/tokenmgmt/models"
)

// PathTokens is the base path of the token endpoints
const PathTokens = "api/secured/tokens"

// TokenResource drives the token lifecycle: issue, call, skip, complete.
// The lifecycle rules live on the server; calls made out of order come back
// as validation or API errors.
type TokenResource struct {
	r Requester
}

// NewTokenResource creates a TokenResource on top of r
func NewTokenResource(r Requester) *TokenResource {
	return &TokenResource{r: r}
}

// List returns tokens matching filters, passed as query parameters
func (t *TokenResource) List(ctx context.Context, filters models.Record) (models.Payload, error) {
	env, err := t.r.Get(ctx, PathTokens, filters)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// Get fetches one token
func (t *TokenResource) Get(ctx context.Context, id int64) (*models.Token, error) {
	env, err := t.r.Get(ctx, join(PathTokens, id), nil)
	if err != nil {
		return nil, err
	}
	return tokenOf(env)
}

// Issue creates a new token. data is sent as-is, typically mlocation_id,
// mtokencategory_id and customer details.
func (t *TokenResource) Issue(ctx context.Context, data models.Record) (*models.Token, error) {
	env, err := t.r.Post(ctx, join(PathTokens, "issue"), data)
	if err != nil {
		return nil, err
	}
	return tokenOf(env)
}

// FindNext previews the next token number a location will issue
func (t *TokenResource) FindNext(ctx context.Context, locationID int64) (models.Payload, error) {
	env, err := t.r.Post(ctx, join(PathTokens, "find-next-token"), map[string]any{
		models.FieldLocationID: locationID,
	})
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// CallNext calls the next waiting token to a service point
func (t *TokenResource) CallNext(ctx context.Context, locationID, servicePointID int64) (*models.Token, error) {
	return t.transition(ctx, join(PathTokens, "call-next"), locationID, servicePointID)
}

// CallByID calls a specific token to a service point
func (t *TokenResource) CallByID(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
	return t.transition(ctx, join(PathTokens, tokenID, "call"), locationID, servicePointID)
}

// Skip marks a token as skipped
func (t *TokenResource) Skip(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
	return t.transition(ctx, join(PathTokens, tokenID, "skip"), locationID, servicePointID)
}

// Complete marks a token as served
func (t *TokenResource) Complete(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
	return t.transition(ctx, join(PathTokens, tokenID, "complete"), locationID, servicePointID)
}

// CurrentlyServing lists the tokens being served at a location
func (t *TokenResource) CurrentlyServing(ctx context.Context, locationID int64) (models.Payload, error) {
	env, err := t.r.Get(ctx, join(PathTokens, "currently-serving"), map[string]any{
		models.FieldLocationID: locationID,
	})
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// Update changes fields of a token
func (t *TokenResource) Update(ctx context.Context, id int64, data models.Record) (*models.Token, error) {
	env, err := t.r.Put(ctx, join(PathTokens, id), data)
	if err != nil {
		return nil, err
	}
	return tokenOf(env)
}

// Delete removes a token and returns the full response body
func (t *TokenResource) Delete(ctx context.Context, id int64) (models.Payload, error) {
	env, err := t.r.Delete(ctx, join(PathTokens, id))
	if err != nil {
		return models.Payload{}, err
	}
	return bodyOf(env), nil
}

func (t *TokenResource) transition(ctx context.Context, path string, locationID, servicePointID int64) (*models.Token, error) {
	env, err := t.r.Post(ctx, path, map[string]any{
		models.FieldLocationID:     locationID,
		models.FieldServicePointID: servicePointID,
	})
	if err != nil {
		return nil, err
	}
	return tokenOf(env)
}
