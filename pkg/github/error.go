package github

import "fmt"

const (
	OpCreate      = "create"
	OpPush        = "push"
	OpEnablePages = "enable-pages"
	OpClone       = "clone"
	OpUpdate      = "update"
)

// Error tags a failure with the publishing operation where it occurred.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
