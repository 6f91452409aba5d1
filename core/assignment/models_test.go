package assignment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
)

func TestRemoveSubmission(t *testing.T) {
	asg := Assignment{SubmissionIDs: []string{"a", "b", "c"}}

	out := RemoveSubmission(asg, "b")
	assert.Equal(t, []string{"a", "c"}, out.SubmissionIDs)
	assert.Equal(t, []string{"a", "b", "c"}, asg.SubmissionIDs)

	out = RemoveSubmission(out, "missing")
	assert.Equal(t, []string{"a", "c"}, out.SubmissionIDs)
}

func TestAddSubmission(t *testing.T) {
	asg := Assignment{SubmissionIDs: []string{"a"}}
	out := AddSubmission(asg, "b")
	assert.Equal(t, []string{"a", "b"}, out.SubmissionIDs)
	out = AddSubmission(out, "b")
	assert.Equal(t, []string{"a", "b"}, out.SubmissionIDs)
}

func TestUpdateAssignment(t *testing.T) {
	due := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	orig := Assignment{Title: "Essay", Description: "Write 500 words", DueDate: due}

	tests := []struct {
		name    string
		patch   UpdateAssignment
		wantErr []string
		want    Assignment
	}{
		{
			name:  "empty patch keeps everything",
			patch: UpdateAssignment{},
			want:  orig,
		},
		{
			name:  "title only",
			patch: UpdateAssignment{Title: core.SetString(" Long essay ")},
			want:  Assignment{Title: "Long essay", Description: orig.Description, DueDate: due},
		},
		{
			name:  "due date only",
			patch: UpdateAssignment{DueDate: core.SetTime(due.Add(24 * time.Hour))},
			want:  Assignment{Title: orig.Title, Description: orig.Description, DueDate: due.Add(24 * time.Hour)},
		},
		{
			name:  "multibyte title at the limit",
			patch: UpdateAssignment{Title: core.SetString(" " + strings.Repeat("ü", 200) + " ")},
			want:  Assignment{Title: strings.Repeat("ü", 200), Description: orig.Description, DueDate: due},
		},
		{
			name:    "title over the limit",
			patch:   UpdateAssignment{Title: core.SetString(strings.Repeat("ü", 201))},
			wantErr: []string{"title"},
		},
		{
			name: "blank and null fields",
			patch: UpdateAssignment{
				Title:       core.SetString(""),
				Description: core.OptString{Set: true},
				DueDate:     core.OptTime{Set: true},
			},
			wantErr: []string{"title", "description", "due_date"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.patch.Validate()
			if tc.wantErr != nil {
				require.Error(t, err)
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok)
				var fields []string
				for _, f := range verr.Fields {
					fields = append(fields, f.Field)
				}
				assert.Equal(t, tc.wantErr, fields)
				return
			}
			require.NoError(t, err)
			got := orig
			tc.patch.Apply(&got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQueryFilter_Match(t *testing.T) {
	now := time.Now().UTC()
	asg := Assignment{CourseID: "c1", TeacherID: "t1", DueDate: now}

	assert.True(t, QueryFilter{}.Match(asg))
	assert.True(t, QueryFilter{CourseID: "c1", TeacherID: "t1"}.Match(asg))
	assert.False(t, QueryFilter{CourseID: "c2"}.Match(asg))
	assert.True(t, QueryFilter{DueFrom: now.Add(-time.Hour), DueTo: now.Add(time.Hour)}.Match(asg))
	assert.False(t, QueryFilter{DueFrom: now.Add(time.Minute)}.Match(asg))
	assert.False(t, QueryFilter{DueTo: now.Add(-time.Minute)}.Match(asg))
}
