package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FlagType is the kind of value expected by a flag.
type FlagType string

// Flag types
const (
	FlagString FlagType = "string"
	FlagBool   FlagType = "bool"
	FlagSlice  FlagType = "slice"
)

// Flag describes a command flag.
type Flag struct {
	Name      string
	ShortHand string
	Usage     string
	Default   string
	Type      FlagType
	IsValid   func(string) bool
}

// Values contains the args and flags values of a command.
type Values map[string][]string

// GetString returns the first value of a key.
func (v Values) GetString(s string) string {
	if len(v[s]) == 0 {
		return ""
	}
	return v[s][0]
}

// GetStringSlice returns the values of a slice flag.
func (v Values) GetStringSlice(s string) []string {
	if len(v[s]) == 0 || v[s][0] == "" {
		return nil
	}
	return strings.Split(v[s][0], "||")
}

// GetBool returns a boolean value, false if unset or invalid.
func (v Values) GetBool(s string) bool {
	b, _ := strconv.ParseBool(v.GetString(s))
	return b
}

// GetInt64 parses a value as an int64.
func (v Values) GetInt64(s string) (int64, error) {
	str := v.GetString(s)
	if str == "" {
		return 0, nil
	}
	i, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, NewError("%s: invalid number %q", s, str)
	}
	return i, nil
}

// GetInt64Slice parses every value of a key, splitting comma separated lists.
func (v Values) GetInt64Slice(s string) ([]int64, error) {
	var res []int64
	for _, str := range v[s] {
		for _, part := range strings.Split(str, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			i, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, NewError("%s: invalid number %q", s, part)
			}
			res = append(res, i)
		}
	}
	return res, nil
}

// Arg describes a positional argument.
type Arg struct {
	Name    string
	IsValid func(string) bool
}

// Command describes a cli command before its conversion to a cobra command.
type Command struct {
	Name         string
	Aliases      []string
	Args         []Arg
	OptionalArgs []Arg
	VariadicArgs Arg
	Short        string
	Long         string
	Example      string
	Flags        []Flag
}

// CommandModifier alters a command according to its run function.
type CommandModifier func(*Command, interface{})

// CommandWithExtraFlags adds the output flags of get and list commands.
func CommandWithExtraFlags(c *Command, run interface{}) {
	var extraFlags []Flag
	switch run.(type) {
	case RunGetFunc:
		extraFlags = []Flag{
			{
				Name:    "format",
				Default: "plain",
				Usage:   "Output format: plain|json|yaml",
			},
			{
				Name:  "quiet",
				Type:  FlagBool,
				Usage: "Only display object's key",
			},
			{
				Name:  "fields",
				Usage: "Only display specified object fields",
			},
		}
	case RunListFunc:
		extraFlags = []Flag{
			{
				Name:  "filter",
				Usage: "Filter output based on conditions provided",
			},
			{
				Name:    "format",
				Default: "table",
				Usage:   "Output format: table|json|yaml",
			},
			{
				Name:      "quiet",
				ShortHand: "q",
				Type:      FlagBool,
				Usage:     "Only display object's key",
			},
			{
				Name:  "fields",
				Usage: "Only display specified object fields. 'field1,field2' to select multiple fields",
			},
		}
	}
	c.Flags = append(c.Flags, extraFlags...)
}

// CommandWithExtraAliases adds the usual aliases of list commands.
func CommandWithExtraAliases(c *Command, run interface{}) {
	if _, ok := run.(RunListFunc); ok && c.Name == "list" {
		c.Aliases = append(c.Aliases, "ls")
	}
}

// ErrWrongUsage is returned when a command is called with wrong arguments.
var ErrWrongUsage = &Error{Code: 1, Err: fmt.Errorf("wrong usage")}

// Error is an error with an exit code.
type Error struct {
	Code int
	Err  error
}

// NewError returns a cli error with the default exit code.
func NewError(format string, args ...interface{}) *Error {
	return &Error{Code: 1, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

type GetResult interface{}
type ListResult []interface{}

type RunFunc func(Values) error
type RunGetFunc func(Values) (GetResult, error)
type RunListFunc func(Values) (ListResult, error)

// AsListResult converts a slice to a ListResult.
func AsListResult(i interface{}) ListResult {
	s := reflect.ValueOf(i)
	if s.Kind() != reflect.Slice {
		panic("AsListResult() given a non-slice type")
	}

	res := ListResult{}
	for i := 0; i < s.Len(); i++ {
		res = append(res, s.Index(i).Interface())
	}

	return res
}
