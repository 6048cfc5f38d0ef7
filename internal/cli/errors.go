package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// flagValueError reports a malformed repeatable flag value such as --stage.
type flagValueError struct {
	flag  string
	value string
	want  string
}

func (e flagValueError) Error() string {
	return fmt.Sprintf("invalid --%s %q (expected %s)", e.flag, e.value, e.want)
}

func errFlagValue(flag, value, want string) error {
	return flagValueError{flag: flag, value: value, want: want}
}
