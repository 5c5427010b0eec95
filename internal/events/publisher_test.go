package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventJSON(t *testing.T) {
	ev := NewEvent("product", "created", "ProductService", map[string]any{"id": 4})

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "product.created", got["type"])
	assert.Equal(t, "ProductService", got["service"])
	assert.Equal(t, float64(4), got["entity"].(map[string]any)["id"])
	assert.NotEmpty(t, got["occurred_at"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: "user.created"}))
	assert.NoError(t, p.Close())
}
