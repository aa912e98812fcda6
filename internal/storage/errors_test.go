package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnectionError("open", "failed to ping database", cause)

	assert.Equal(t, "open: failed to ping database (caused by: dial tcp: connection refused)", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewQueryError("upsert_offer", "failed to upsert offer", nil)
	assert.Equal(t, "upsert_offer: failed to upsert offer", bare.Error())
}

func TestErrorTypePredicates(t *testing.T) {
	conn := NewConnectionError("open", "boom", nil)
	query := NewQueryError("trading_pairs", "boom", nil)
	migration := NewMigrationError("migrate", "boom", nil)
	config := NewConfigurationError("new_store", "boom", nil)

	assert.True(t, IsConnectionError(conn))
	assert.False(t, IsConnectionError(query))
	assert.True(t, IsQueryError(query))
	assert.True(t, IsMigrationError(migration))
	assert.True(t, IsConfigurationError(config))

	// Predicates see through wrapping.
	wrapped := fmt.Errorf("ingest: %w", query)
	assert.True(t, IsQueryError(wrapped))
	assert.False(t, IsQueryError(errors.New("plain")))
}

func TestRetryability(t *testing.T) {
	assert.True(t, NewConnectionError("open", "boom", nil).IsRetryable())
	assert.False(t, NewMigrationError("migrate", "boom", nil).IsRetryable())

	timeoutQuery := NewQueryError("q", "boom", errors.New("statement timeout"))
	assert.True(t, timeoutQuery.IsRetryable())
	syntaxQuery := NewQueryError("q", "boom", errors.New("syntax error at or near"))
	assert.False(t, syntaxQuery.IsRetryable())

	assert.True(t, IsRetryable(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsRetryable(errors.New("null value violates not-null constraint")))
	assert.False(t, IsRetryable(nil))
}
