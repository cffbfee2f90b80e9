package dataset

import "fmt"

// DatasetError reports a failure to locate or read a dataset split.
type DatasetError struct {
	Split string
	Path  string
	Err   error
}

func (e *DatasetError) Error() string {
	if e == nil {
		return "dataset: <nil>"
	}
	msg := fmt.Sprintf("dataset: split %q", e.Split)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DatasetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
