package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), KindInternal},
		{"not found", NotFound("animal not found"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("approve: %w", Conflict("already decided")), KindConflict},
		{"validation", ValidationField("email", "required"), KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("adoptions.Approve", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindInternal))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidation_KeepsFields(t *testing.T) {
	err := Validation(map[string]string{"visitDate": "must be in the future"})

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Validation failed", e.Message)
	assert.Equal(t, "must be in the future", e.Fields["visitDate"])
}
