package api

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return types.InvalidArgumentf("malformed request body: %v", err)
	}
	return nil
}

// optString decodes a field that may be absent (unset), null (set to
// empty), or a string.
func optString(raw json.RawMessage) (types.Field[string], error) {
	if len(raw) == 0 {
		return types.Field[string]{}, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return types.Some(""), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.Field[string]{}, types.InvalidArgumentf("expected a string or null: %v", err)
	}
	return types.Some(s), nil
}
