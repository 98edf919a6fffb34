package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_ThreeWayDecoding(t *testing.T) {
	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Engineer","deadline_date":null}`), &in))

	assert.True(t, in.Title.Set)
	assert.True(t, in.Title.Present())
	assert.Equal(t, "Engineer", in.Title.Value)

	assert.True(t, in.DeadlineDate.Set)
	assert.True(t, in.DeadlineDate.Null)
	assert.False(t, in.DeadlineDate.Present())

	assert.False(t, in.Company.Set)
	assert.False(t, in.Status.Set)
	assert.False(t, in.Notes.Set)
}

func TestOptional_RejectsWrongType(t *testing.T) {
	var in UpdateInput
	err := json.Unmarshal([]byte(`{"status": 3}`), &in)
	assert.Error(t, err)
}

func TestOptional_Marshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
		C Optional[string] `json:"c"`
	}{A: Some("x"), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null,"c":null}`, string(b))
}

func TestChanges_EmptyInputProducesNoChanges(t *testing.T) {
	changes, err := UpdateInput{}.changes()
	require.NoError(t, err)
	assert.Empty(t, changes)
}
