package resources

import (
	"errors"
	"fmt"
	"strings"

	"github.com/s0up4200/tokenmgmt/api"
	"github.com/s0up4200/tokenmgmt/models"
)

// ErrUnexpectedPayload is returned when a response that should hold a single
// object holds something else
var ErrUnexpectedPayload = errors.New("unexpected response payload")

// payloadOf unwraps data, falling back to the whole body
func payloadOf(env *api.Envelope) models.Payload {
	return models.NewPayload(env.Payload())
}

// bodyOf returns the whole response body, untouched
func bodyOf(env *api.Envelope) models.Payload {
	if env == nil {
		return models.NewPayload(nil)
	}
	return models.NewPayload(env.Body)
}

func objectOf(env *api.Envelope) (models.Record, error) {
	p := payloadOf(env)
	rec, ok := p.Record()
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrUnexpectedPayload, p.Raw())
	}
	return rec, nil
}

func tokenOf(env *api.Envelope) (*models.Token, error) {
	rec, err := objectOf(env)
	if err != nil {
		return nil, err
	}
	return models.NewToken(rec), nil
}

func authOf(env *api.Envelope) (*models.AuthResponse, error) {
	rec, err := objectOf(env)
	if err != nil {
		return nil, err
	}
	return models.NewAuthResponse(rec), nil
}

// join builds a path from a base and its segments
func join(base string, segments ...any) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, s := range segments {
		parts = append(parts, fmt.Sprint(s))
	}
	return strings.Join(parts, "/")
}
