package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "purchase_orders_number_key"}
	require.True(t, IsUniqueViolation(unique))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert po: %w", unique)))

	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("not a pg error")))
	require.False(t, IsUniqueViolation(nil))
}

func TestUserSafeMessageDuplicate(t *testing.T) {
	err := fmt.Errorf("po: number %q: %w", "PO-100", ErrDuplicate)
	require.Equal(t, "duplicate entry", UserSafeMessage(err))
}
