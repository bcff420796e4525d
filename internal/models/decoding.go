package models

// TypeProblems holds the JSON type mismatches found while binding a request
// body. Mismatched fields stay unset; the problems travel with the input so
// validation reports them together with its own findings.
type TypeProblems struct {
	problems []string
}

// SetTypeProblems records the mismatches of the decoded body
func (t *TypeProblems) SetTypeProblems(problems []string) {
	t.problems = problems
}

// TypeProblemList returns the recorded mismatches
func (t *TypeProblems) TypeProblemList() []string {
	return t.problems
}
