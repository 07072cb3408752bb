package submission

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kalesha58/expense-core/internal/models"
)

// NormalizeResponse collapses the three response envelope shapes the backend
// is known to produce into a single record:
//
//	{"Response": [{...}]}   object wrapping a Response array
//	[{...}]                 bare array
//	{...}                   bare object
//
// The ambiguity stops here; business logic only ever sees SubmitResponse.
func NormalizeResponse(body []byte) (*models.SubmitResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var list []models.SubmitResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response array: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("response array is empty")
		}
		return &list[0], nil
	}

	var wrapped struct {
		Response []models.SubmitResponse `json:"Response"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && len(wrapped.Response) > 0 {
		return &wrapped.Response[0], nil
	}

	var single models.SubmitResponse
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("failed to decode response object: %w", err)
	}
	if single.ReturnStatus == "" {
		return nil, fmt.Errorf("response carries no return status")
	}
	return &single, nil
}
