package refund

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatewayError_Error(t *testing.T) {
	err := &GatewayError{Code: "charge_already_refunded", Message: "Charge ch_1 has already been refunded."}
	require.Equal(t, "gateway error charge_already_refunded: Charge ch_1 has already been refunded.", err.Error())

	err = &GatewayError{Message: "something went wrong"}
	require.Equal(t, "gateway error: something went wrong", err.Error())
}

func TestGatewayError_SurvivesWrapping(t *testing.T) {
	inner := &GatewayError{Code: "rate_limit", Message: "too many requests"}
	wrapped := fmt.Errorf("failed to refund charge ch_1: %w", inner)

	var gwErr *GatewayError
	require.ErrorAs(t, wrapped, &gwErr)
	require.Equal(t, "rate_limit", gwErr.Code)
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("charge ch_1: %w", ErrAlreadyRefunded)
	require.ErrorIs(t, wrapped, ErrAlreadyRefunded)
	require.False(t, errors.Is(wrapped, ErrNoChargesFound))
}
