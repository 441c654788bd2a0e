package validity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeErrorsOrdering(t *testing.T) {
	_, vc := NewContext(context.Background())
	vc.AppendLocal(Result{Message: "a"})
	require.True(t, vc.claimGlobal())
	vc.appendGlobal(Result{Message: "b"})

	merged := MergeErrors(vc, []Error{{Message: "c"}})
	assert.Equal(t, []Error{{Message: "c"}, {Message: "a"}, {Message: "b"}}, merged)
}

func TestMergeErrorsProjection(t *testing.T) {
	_, vc := NewContext(context.Background())
	vc.AppendLocal(Result{
		Message: "visible",
		Detail:  "internal detail that must not leak",
		Err:     errors.New("wrapped cause"),
	})

	merged := MergeErrors(vc, nil)
	require.Len(t, merged, 1)

	// Serialize the projected error the way a response would and make sure
	// nothing but the message survives.
	b, err := json.Marshal(merged[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"visible"}`, string(b))
}

func TestMergeErrorsGlobalNeverRan(t *testing.T) {
	_, vc := NewContext(context.Background())
	vc.AppendLocal(Result{Message: "a"})

	merged := MergeErrors(vc, nil)
	assert.Equal(t, []Error{{Message: "a"}}, merged)
}

func TestMergeErrorsNilContext(t *testing.T) {
	merged := MergeErrors(nil, []Error{{Message: "c"}})
	assert.Equal(t, []Error{{Message: "c"}}, merged)
}

func TestMergeErrorsEmpty(t *testing.T) {
	_, vc := NewContext(context.Background())
	assert.Empty(t, MergeErrors(vc, nil))
}
