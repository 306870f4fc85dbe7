package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyDSNDisablesEnrichment(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	tags, err := db.Tags(context.Background(), "stream-a")
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.NoError(t, db.Close())
}
