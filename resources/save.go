package resources

import (
	"context"

	"github.com/s0up4200/tokenmgmt/models"
)

// Base paths of the save-style resources
const (
	PathLocations       = "api/secured/locations"
	PathServicePoints   = "api/secured/service-points"
	PathTokenCategories = "api/secured/token-categories"
	PathDisplays        = "api/secured/displays"
	PathDisplayData     = "api/common/displays"
)

// saveResource implements CRUD for resources where create and update share
// a single POST {base}/save endpoint; updates carry the id in the body.
type saveResource struct {
	r    Requester
	base string
}

// List returns all records matching filters
func (s saveResource) List(ctx context.Context, filters models.Record) (models.Payload, error) {
	env, err := s.r.Get(ctx, s.base, filters)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// Get fetches one record
func (s saveResource) Get(ctx context.Context, id int64) (models.Payload, error) {
	env, err := s.r.Get(ctx, join(s.base, id), nil)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// Create stores a new record
func (s saveResource) Create(ctx context.Context, data models.Record) (models.Payload, error) {
	return s.save(ctx, data)
}

// Update stores data under id. The caller's record is not modified.
func (s saveResource) Update(ctx context.Context, id int64, data models.Record) (models.Payload, error) {
	return s.save(ctx, data.With(models.FieldID, id))
}

// Delete removes a record and returns the full response body
func (s saveResource) Delete(ctx context.Context, id int64) (models.Payload, error) {
	env, err := s.r.Delete(ctx, join(s.base, id))
	if err != nil {
		return models.Payload{}, err
	}
	return bodyOf(env), nil
}

func (s saveResource) save(ctx context.Context, data models.Record) (models.Payload, error) {
	env, err := s.r.Post(ctx, join(s.base, "save"), data)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}

// LocationResource manages branches
type LocationResource struct{ saveResource }

// NewLocationResource creates a LocationResource on top of r
func NewLocationResource(r Requester) *LocationResource {
	return &LocationResource{saveResource{r: r, base: PathLocations}}
}

// ServicePointResource manages counters within a location
type ServicePointResource struct{ saveResource }

// NewServicePointResource creates a ServicePointResource on top of r
func NewServicePointResource(r Requester) *ServicePointResource {
	return &ServicePointResource{saveResource{r: r, base: PathServicePoints}}
}

// TokenCategoryResource manages token categories and their prefixes
type TokenCategoryResource struct{ saveResource }

// NewTokenCategoryResource creates a TokenCategoryResource on top of r
func NewTokenCategoryResource(r Requester) *TokenCategoryResource {
	return &TokenCategoryResource{saveResource{r: r, base: PathTokenCategories}}
}

// DisplayResource manages queue displays
type DisplayResource struct{ saveResource }

// NewDisplayResource creates a DisplayResource on top of r
func NewDisplayResource(r Requester) *DisplayResource {
	return &DisplayResource{saveResource{r: r, base: PathDisplays}}
}

// Data returns what a display screen shows. The endpoint is public and
// works without credentials.
func (d *DisplayResource) Data(ctx context.Context, displayID int64) (models.Payload, error) {
	env, err := d.r.Get(ctx, join(PathDisplayData, displayID, "data"), nil)
	if err != nil {
		return models.Payload{}, err
	}
	return payloadOf(env), nil
}
