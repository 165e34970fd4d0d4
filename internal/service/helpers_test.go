package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code)
}
