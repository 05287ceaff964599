package apperrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Is(t *testing.T) {
	err := errors.Wrap(Validation("location", "is required"), "record event")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "location", ve.Field)
}

func TestStorageError_Classification(t *testing.T) {
	constraint := &StorageError{Op: "insert event", Code: "23514", Err: errors.New("check violation")}
	require.True(t, constraint.IsConstraint())
	require.False(t, constraint.IsTransient())

	conn := &StorageError{Op: "select shipment", Conn: true, Err: errors.New("dial tcp: connection refused")}
	require.False(t, conn.IsConstraint())
	require.True(t, conn.IsTransient())

	// без SQLSTATE и без признака соединения повторять нечего
	bare := &StorageError{Op: "select shipment", Err: errors.New("decode shipment block")}
	require.False(t, bare.IsTransient())

	serialization := &StorageError{Op: "update", Code: "40001", Err: errors.New("could not serialize")}
	require.True(t, serialization.IsTransient())

	require.True(t, IsTransient(errors.Wrap(conn, "lookup")))
	require.False(t, IsTransient(ErrNotFound))
	require.Contains(t, constraint.Error(), "23514")
}

func TestPartialFailureError(t *testing.T) {
	cause := errors.New("insert failed")
	err := &PartialFailureError{Completed: "status update", Failed: "tracking event insert", Err: cause}
	require.ErrorIs(t, err, ErrPartialFailure)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "status update succeeded but tracking event insert failed: insert failed", err.Error())
}
