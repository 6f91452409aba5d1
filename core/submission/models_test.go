package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPending, true},
		{StatusPending, StatusSubmitted, true},
		{StatusPending, StatusGraded, false},
		{StatusSubmitted, StatusPending, false},
		{StatusSubmitted, StatusSubmitted, true},
		{StatusSubmitted, StatusGraded, true},
		{StatusGraded, StatusGraded, true},
		{StatusGraded, StatusSubmitted, false},
		{StatusGraded, StatusPending, false},
		{Status("Lost"), StatusGraded, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestUpdateSubmission_Validate(t *testing.T) {
	tests := []struct {
		name      string
		patch     UpdateSubmission
		wantField string
	}{
		{"empty patch", UpdateSubmission{}, ""},
		{"grade in range", UpdateSubmission{Grade: core.SetFloat64(100)}, ""},
		{"grade cleared", UpdateSubmission{Grade: core.NullFloat64()}, ""},
		{"grade below range", UpdateSubmission{Grade: core.SetFloat64(-1)}, "grade"},
		{"grade above range", UpdateSubmission{Grade: core.SetFloat64(101)}, "grade"},
		{"unknown status", UpdateSubmission{Status: core.SetString("Done")}, "status"},
		{"null status", UpdateSubmission{Status: core.OptString{Set: true}}, "status"},
		{"blank content", UpdateSubmission{Content: core.SetString(" ")}, "content"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.patch.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verr, ok := err.(*core.ValidationError)
			require.True(t, ok)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tc.wantField, verr.Fields[0].Field)
		})
	}
}

func TestUpdateSubmission_Apply(t *testing.T) {
	t.Run("partial keeps other fields", func(t *testing.T) {
		sub := Submission{Content: "essay", Status: StatusSubmitted}
		require.NoError(t, UpdateSubmission{Grade: core.SetFloat64(90)}.Apply(&sub))
		assert.Equal(t, "essay", sub.Content)
		assert.Equal(t, StatusSubmitted, sub.Status)
		assert.Equal(t, 90.0, sub.Grade.Float64)
	})

	t.Run("illegal transition leaves submission untouched", func(t *testing.T) {
		sub := Submission{Content: "essay", Status: StatusGraded}
		err := UpdateSubmission{Status: core.SetString("Pending"), Content: core.SetString("new")}.Apply(&sub)
		assert.Equal(t, core.KindInvalid, core.KindOf(err))
		assert.Equal(t, StatusGraded, sub.Status)
		assert.Equal(t, "essay", sub.Content)
	})

	t.Run("graded to graded with new grade", func(t *testing.T) {
		sub := Submission{Status: StatusGraded}
		require.NoError(t, UpdateSubmission{Status: core.SetString("Graded"), Grade: core.SetFloat64(70)}.Apply(&sub))
		assert.Equal(t, 70.0, sub.Grade.Float64)
	})
}

func TestQueryFilter_Match(t *testing.T) {
	sub := Submission{CourseID: "c1", AssignmentID: "a1", StudentID: "s1", Status: StatusSubmitted}
	assert.True(t, QueryFilter{}.Match(sub))
	assert.True(t, QueryFilter{CourseID: "c1", AssignmentID: "a1", StudentID: "s1", Status: "Submitted"}.Match(sub))
	assert.False(t, QueryFilter{Status: "Graded"}.Match(sub))
	assert.False(t, QueryFilter{StudentID: "s2"}.Match(sub))
}
