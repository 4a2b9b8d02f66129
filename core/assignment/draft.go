package assignment

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/school"
)

// BlankOptions is the number of empty option slots a new question starts with.
const BlankOptions = 4

var ErrQuestionIndex = errors.New("question index out of range")

// Draft is the editable question list of an assignment form. It is never persisted by itself:
// its questions are saved through Service.Create or Service.Update.
type Draft struct {
	Type      school.AssignmentType
	questions []school.Question
}

func NewDraft(typ school.AssignmentType) *Draft {
	return &Draft{Type: typ}
}

// DraftFrom starts editing a copy of a's questions.
func DraftFrom(a school.Assignment) *Draft {
	return &Draft{Type: a.Type, questions: school.CloneQuestions(a.Questions)}
}

// Questions returns a copy of the questions, in order.
func (d *Draft) Questions() []school.Question {
	qs := school.CloneQuestions(d.questions)
	if qs == nil {
		qs = []school.Question{}
	}
	return qs
}

func (d *Draft) Len() int { return len(d.questions) }

// AddQuestion appends a blank question and returns its index.
func (d *Draft) AddQuestion() int {
	d.questions = append(d.questions, school.Question{
		ID:      uuid.New().String(),
		Options: make([]string, BlankOptions),
	})
	return len(d.questions) - 1
}

// RemoveQuestion deletes the i-th question; the following ones shift down.
func (d *Draft) RemoveQuestion(i int) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.questions = append(d.questions[:i:i], d.questions[i+1:]...)
	return nil
}

func (d *Draft) SetQuestionText(i int, text string) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.questions[i].Text = text
	return nil
}

// SetOption sets the j-th option of the i-th question, growing the options as needed.
func (d *Draft) SetOption(i, j int, option string) error {
	if err := d.check(i); err != nil {
		return err
	}
	if j < 0 {
		return ErrQuestionIndex
	}
	q := &d.questions[i]
	if j >= len(q.Options) {
		q.Options = append(q.Options, make([]string, j+1-len(q.Options))...)
	}
	q.Options[j] = option
	return nil
}

func (d *Draft) SetCorrectAnswer(i int, answer string) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.questions[i].CorrectAnswer = answer
	return nil
}

func (d *Draft) check(i int) error {
	if i < 0 || i >= len(d.questions) {
		return errors.Wrapf(ErrQuestionIndex, "index %d, %d questions", i, len(d.questions))
	}
	return nil
}
