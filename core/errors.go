package core

import "fmt"

// IncompleteRepoError reports that a required repository subdirectory is
// missing or read-only.
type IncompleteRepoError struct {
	Which  string
	Reason string
}

func (e *IncompleteRepoError) Error() string {
	return fmt.Sprintf("repository isn't complete: %s is %s", e.Which, e.Reason)
}

// EntryNotFoundError reports that no object exists for the given id.
type EntryNotFoundError struct {
	ID HashID
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.ID)
}

// BrokenObjectError reports that an object's bytes do not hash to its
// storage path.
type BrokenObjectError struct {
	Expected HashID
	Actual   HashID
}

func (e *BrokenObjectError) Error() string {
	return fmt.Sprintf("broken object: expected %s, got %s", e.Expected, e.Actual)
}

// BankNotFoundError reports that no bank with the given name exists in a
// repository.
type BankNotFoundError struct {
	Name string
}

func (e *BankNotFoundError) Error() string {
	return fmt.Sprintf("bank not found: %s", e.Name)
}

// InvalidInputError reports a bad CLI or config value.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Msg
}

// InvalidFileNameError reports a non-Unicode name where a name is required.
type InvalidFileNameError struct {
	Raw string
}

func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("invalid (non-Unicode) file name: %q", e.Raw)
}

// ParseError reports that a JSON or ignore-pattern text failed to decode.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
