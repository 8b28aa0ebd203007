package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	err := fmt.Errorf("persist: %w", NewStorageError("failed to write dataset", "save", "out.json", fs.ErrPermission))

	var storageErr *StorageError
	require.True(t, stderrors.As(err, &storageErr))
	require.Equal(t, CodeStorage, storageErr.Code)
	require.Equal(t, "out.json", storageErr.Path)
	require.True(t, stderrors.Is(err, fs.ErrPermission))
	require.Equal(t, "persist: failed to write dataset: permission denied", err.Error())
}

func TestErrorContext(t *testing.T) {
	fetchErr := NewFetchError("request failed", "https://www.ufc.com/athlete/x", 503, nil)
	require.Equal(t, "request failed", fetchErr.Error())
	require.Equal(t, 503, fetchErr.Context["status_code"])

	validationErr := NewValidationError("bad", "SCRAPER_CONCURRENCY", 0)
	require.Nil(t, validationErr.Unwrap())
	require.Equal(t, CodeValidation, validationErr.Code)

	base := NewScraperError("wrapped", CodeScraperError, nil).WithCause(fs.ErrNotExist)
	require.ErrorIs(t, base, fs.ErrNotExist)
}
