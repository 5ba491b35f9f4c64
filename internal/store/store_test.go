package store

import (
  "context"
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestCursorKey(t *testing.T) {
  assert.Equal(t, "invoice_settle_index:alpha", cursorKey(" alpha "))
}

func TestNullableString(t *testing.T) {
  assert.Nil(t, nullableString("  "))
  assert.Equal(t, "memo", nullableString("memo"))
}

func TestSchemaRequiresDatabase(t *testing.T) {
  store := &Store{}
  assert.Error(t, store.EnsureSchema(context.Background()))

  _, err := store.List(context.Background(), 10)
  assert.Error(t, err)
}
