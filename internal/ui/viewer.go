package ui

// Picker lets the user choose one identifier out of many
type Picker interface {
	Pick(ids []string) (string, error)
}

var _ Picker = (*FailurePicker)(nil)
