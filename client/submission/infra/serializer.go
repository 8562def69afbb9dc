package infra

import (
	"encoding/json"
	"fmt"

	"crpt-client/client/submission/domain"
)

// JSONSerializer implementa domain.Serializer com encoding/json.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return b, nil
}
