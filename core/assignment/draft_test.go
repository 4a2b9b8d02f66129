package assignment

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/school"
)

func TestDraft(t *testing.T) {
	d := NewDraft(school.TypeMCQ)
	assert.Equal(t, []school.Question{}, d.Questions())

	for i := 0; i < 3; i++ {
		assert.Equal(t, i, d.AddQuestion())
	}
	qs := d.Questions()
	require.Len(t, qs, 3)
	for _, q := range qs {
		assert.NotEmpty(t, q.ID)
		assert.Equal(t, []string{"", "", "", ""}, q.Options)
	}

	require.NoError(t, d.SetQuestionText(0, "first"))
	require.NoError(t, d.SetQuestionText(1, "second"))
	require.NoError(t, d.SetQuestionText(2, "third"))
	require.NoError(t, d.SetOption(1, 0, "yes"))
	require.NoError(t, d.SetOption(1, 5, "far"))
	require.NoError(t, d.SetCorrectAnswer(1, "yes"))

	second := d.Questions()[1]
	assert.Equal(t, []string{"yes", "", "", "", "", "far"}, second.Options)
	assert.Equal(t, "yes", second.CorrectAnswer)

	// removing shifts the following questions, which keep their IDs
	require.NoError(t, d.RemoveQuestion(0))
	qs = d.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, "second", qs[0].Text)
	assert.Equal(t, second.ID, qs[0].ID)
	assert.Equal(t, "third", qs[1].Text)

	// returned questions are copies
	qs[0].Options[0] = "no"
	assert.Equal(t, "yes", d.Questions()[0].Options[0])
}

func TestDraft_outOfRange(t *testing.T) {
	d := NewDraft(school.TypeMCQ)
	d.AddQuestion()

	tests := []struct {
		name string
		fn   func() error
	}{
		{name: "remove negative", fn: func() error { return d.RemoveQuestion(-1) }},
		{name: "remove past end", fn: func() error { return d.RemoveQuestion(1) }},
		{name: "text", fn: func() error { return d.SetQuestionText(3, "x") }},
		{name: "option question", fn: func() error { return d.SetOption(2, 0, "x") }},
		{name: "option index", fn: func() error { return d.SetOption(0, -1, "x") }},
		{name: "correct answer", fn: func() error { return d.SetCorrectAnswer(-2, "x") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			assert.True(t, errors.Is(err, ErrQuestionIndex), "got %v", err)
			assert.Equal(t, 1, d.Len())
		})
	}
}

func TestDraftFrom(t *testing.T) {
	a := school.Assignment{
		Type: school.TypeMCQ,
		Questions: []school.Question{
			{ID: "q1", Text: "one", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		},
	}
	d := DraftFrom(a)
	require.NoError(t, d.SetOption(0, 0, "changed"))
	d.AddQuestion()

	assert.Equal(t, "a", a.Questions[0].Options[0], "the assignment is left untouched")
	assert.Len(t, a.Questions, 1)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, school.TypeMCQ, d.Type)
}
