package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The embedded schema carries constraints the services rely on. These
// assertions pin the load-bearing ones so a migration edit cannot silently
// drop them.
func TestInitialSchemaConstraints(t *testing.T) {
	raw, err := MigrationsFS.ReadFile("00001_initial_schema.sql")
	require.NoError(t, err)
	schema := string(raw)

	// Deleting an order detaches its returns rather than failing on the
	// foreign key. The column must be nullable for SET NULL to apply.
	assert.Contains(t, schema, "order_id UUID REFERENCES orders(id) ON DELETE SET NULL",
		"returns.order_id must allow order deletion")
	assert.NotContains(t, schema, "order_id UUID NOT NULL REFERENCES orders(id),",
		"returns.order_id must not block order deletion")

	// Replay guard for gateway webhooks.
	assert.Contains(t, schema, "event_id TEXT NOT NULL UNIQUE")

	// One invoice per order.
	assert.Contains(t, schema, "order_id UUID NOT NULL UNIQUE REFERENCES orders(id)")

	// Reason bounds are enforced in characters at both layers.
	assert.Contains(t, schema, "CHECK (char_length(reason) BETWEEN 5 AND 500)")

	// Order items cascade with their order.
	assert.Contains(t, schema, "order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE")
}
