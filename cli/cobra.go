package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fsamin/go-dump"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/shipyard-ci/shipctl/sdk"
)

// OSExit terminates the process, replaced in tests.
var OSExit = os.Exit

// Stderr receives the error messages of ExitOnError.
var Stderr io.Writer = os.Stderr

// ExitOnError if the error is not nil; exit the process with printing help functions and the error
func ExitOnError(err error, helpFunc ...func() error) {
	if err == nil {
		return
	}

	code := 50 // default error code

	switch e := errors.Cause(err).(type) {
	case *Error:
		code = e.Code
		fmt.Fprintln(Stderr, "Error:", e.Error())
	case sdk.Error:
		code = exitCode(e.Status)
		if e.RequestID != "" {
			fmt.Fprintf(Stderr, "Error(request_id:%s): %s\n", e.RequestID, e.String())
		} else {
			fmt.Fprintln(Stderr, "Error:", e.String())
		}
	case *sdk.APIError:
		code = exitCode(e.Code)
		fmt.Fprintln(Stderr, "Error:", sdk.UserMessage(e))
	default:
		fmt.Fprintln(Stderr, "Error:", err.Error())
	}

	for _, f := range helpFunc {
		f() // nolint
	}

	OSExit(code)
}

// exitCode maps an HTTP status to a process exit code.
func exitCode(status int) int {
	switch {
	case status == 401 || status == 403:
		return 3
	case status == 404:
		return 4
	case status >= 400 && status < 500:
		return 2
	}
	return 50
}

// SubCommands represents an array of cobra.Command
type SubCommands []*cobra.Command

// NewCommand creates a new cobra command with or without a RunFunc and eventually subCommands
func NewCommand(c Command, run RunFunc, subCommands SubCommands, mod ...CommandModifier) *cobra.Command {
	return newCommand(c, run, subCommands, mod...)
}

// NewGetCommand creates a new cobra command with a RunGetFunc and eventually subCommands
func NewGetCommand(c Command, run RunGetFunc, subCommands SubCommands, mod ...CommandModifier) *cobra.Command {
	return newCommand(c, run, subCommands, mod...)
}

// NewListCommand creates a new cobra command with a RunListFunc and eventually subCommands
func NewListCommand(c Command, run RunListFunc, subCommands SubCommands, mod ...CommandModifier) *cobra.Command {
	return newCommand(c, run, subCommands, mod...)
}

func usage(c Command) string {
	use := c.Name
	for _, a := range c.Args {
		use += " " + strings.ToUpper(a.Name)
	}
	for _, a := range c.OptionalArgs {
		use += " [" + strings.ToUpper(a.Name) + "]"
	}
	if c.VariadicArgs.Name != "" {
		use += " " + strings.ToUpper(c.VariadicArgs.Name) + " ..."
	}
	return use
}

func newCommand(c Command, run interface{}, subCommands SubCommands, mods ...CommandModifier) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(os.Stdout)
	cmd.Use = usage(c)

	if len(mods) == 0 {
		mods = []CommandModifier{CommandWithExtraFlags, CommandWithExtraAliases}
	}

	if run != nil {
		for _, mod := range mods {
			mod(&c, run)
		}
	}
	cmd.Aliases = c.Aliases
	for _, f := range c.Flags {
		switch f.Type {
		case FlagBool:
			b, _ := strconv.ParseBool(f.Default)
			_ = cmd.Flags().BoolP(f.Name, f.ShortHand, b, f.Usage)
		case FlagSlice:
			_ = cmd.Flags().StringSliceP(f.Name, f.ShortHand, nil, f.Usage)
		default:
			_ = cmd.Flags().StringP(f.Name, f.ShortHand, f.Default, f.Usage)
		}
	}

	cmd.Short = c.Short
	cmd.Long = c.Long
	cmd.Example = c.Example

	cmd.AddCommand(subCommands...)

	if run == nil || reflect.ValueOf(run).IsNil() {
		cmd.Run = nil
		cmd.RunE = nil
		return cmd
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := checkArgs(c, args); err != nil {
			ExitOnError(err, cmd.Help)
			return
		}

		vals, err := argsToValues(c, cmd, args)
		if err != nil {
			ExitOnError(err, cmd.Help)
			return
		}

		format, _ := cmd.Flags().GetString("format")
		quiet, _ := cmd.Flags().GetBool("quiet")
		verbose, _ := cmd.Flags().GetBool("verbose")
		fields, _ := cmd.Flags().GetString("fields")
		var fs []string
		if fields != "" {
			fs = strings.Split(fields, ",")
		}

		switch f := run.(type) {
		case RunFunc:
			ExitOnError(f(vals))
			OSExit(0)
		case RunGetFunc:
			i, err := f(vals)
			ExitOnError(err)
			ExitOnError(displayItem(cmd.OutOrStdout(), i, format, quiet, fs, verbose))
		case RunListFunc:
			filter, _ := cmd.Flags().GetString("filter")
			filters, err := parseFilters(filter)
			ExitOnError(err)

			s, err := f(vals)
			ExitOnError(err)
			ExitOnError(displayList(cmd.OutOrStdout(), s, format, quiet, filters, fs, verbose))
		default:
			panic(fmt.Errorf("unknown function type: %T", f))
		}
	}

	return cmd
}

func checkArgs(c Command, args []string) error {
	mandatory := len(c.Args)
	// Command must receive as least mandatory args
	if mandatory > len(args) {
		return ErrWrongUsage
	}
	// If there is no optional args but there more args than expected
	if c.VariadicArgs.Name == "" && len(args) > mandatory+len(c.OptionalArgs) {
		return ErrWrongUsage
	}
	// If there is a variadic arg, we condider at least one arg mandatory
	if c.VariadicArgs.Name != "" && len(args) < mandatory+1 {
		return ErrWrongUsage
	}
	return nil
}

func argsToValues(c Command, cmd *cobra.Command, args []string) (Values, error) {
	definedArgs := append([]Arg{}, c.Args...)
	definedArgs = append(definedArgs, c.OptionalArgs...)

	vals := Values{}
	for i := range args {
		if i >= len(definedArgs) {
			vals[c.VariadicArgs.Name] = append(vals[c.VariadicArgs.Name], args[i:]...)
			break
		}
		a := definedArgs[i]
		if a.IsValid != nil && !a.IsValid(args[i]) {
			return nil, NewError("%s is invalid", a.Name)
		}
		vals[a.Name] = append(vals[a.Name], args[i])
	}
	if c.VariadicArgs.IsValid != nil {
		for _, v := range vals[c.VariadicArgs.Name] {
			if !c.VariadicArgs.IsValid(v) {
				return nil, NewError("%s is invalid", c.VariadicArgs.Name)
			}
		}
	}

	for _, f := range c.Flags {
		s := f.Name
		switch f.Type {
		case FlagBool:
			b, err := cmd.Flags().GetBool(s)
			if err != nil {
				return nil, err
			}
			vals[s] = append(vals[s], fmt.Sprintf("%v", b))
		case FlagSlice:
			slice, err := cmd.Flags().GetStringSlice(s)
			if err != nil {
				return nil, err
			}
			vals[s] = append(vals[s], strings.Join(slice, "||"))
		default:
			val, err := cmd.Flags().GetString(s)
			if err != nil {
				return nil, err
			}
			vals[s] = append(vals[s], val)
		}
		if f.IsValid != nil {
			for _, v := range vals[s] {
				if !f.IsValid(v) {
					return nil, NewError("%s is invalid", s)
				}
			}
		}
	}

	for _, name := range []string{"file", "verbose", "insecure", "no-interactive"} {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			vals[name] = append(vals[name], fl.Value.String())
		}
	}
	return vals, nil
}

func parseFilters(filter string) (map[string]string, error) {
	filters := make(map[string]string)
	if filter == "" {
		return filters, nil
	}
	for _, t := range strings.Split(filter, " ") {
		s := strings.SplitN(t, "=", 2)
		if len(s) != 2 {
			return nil, NewError("filter should be formatted like name=value")
		}
		filters[s[0]] = s[1]
	}
	return filters, nil
}

func displayItem(w io.Writer, i interface{}, format string, quiet bool, fields []string, verbose bool) error {
	item := listItem(i, nil, quiet, fields, verbose, map[string]string{})
	switch format {
	case "json":
		b, err := json.Marshal(item)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	case "yaml":
		b, err := yaml.Marshal(item)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(b))
	default:
		if quiet {
			fmt.Fprintln(w, item["key"])
			return nil
		}
		tw := tabwriter.NewWriter(w, 10, 0, 1, ' ', 0)
		m, err := dump.ToStringMap(item)
		if err != nil {
			return err
		}
		itemKeys := make([]string, 0, len(m))
		for k := range m {
			itemKeys = append(itemKeys, k)
		}
		sort.Strings(itemKeys)
		for _, k := range itemKeys {
			fmt.Fprintln(tw, k+"\t"+m[k])
		}
		return tw.Flush()
	}
	return nil
}

func displayList(w io.Writer, s ListResult, format string, quiet bool, filters map[string]string, fields []string, verbose bool) error {
	var tableHeader []string
	var tableData [][]string
	allResult := []map[string]string{}

	for _, i := range s {
		item := listItem(i, filters, quiet, fields, verbose, map[string]string{})
		if len(item) == 0 {
			continue
		}

		if quiet {
			fmt.Fprintln(w, item["key"])
			continue
		}

		allResult = append(allResult, item)

		itemKeys := make([]string, 0, len(item))
		for k := range item {
			itemKeys = append(itemKeys, k)
		}
		sort.Strings(itemKeys)

		if tableHeader == nil {
			tableHeader = itemKeys
		}
		itemData := make([]string, len(itemKeys))
		for j, k := range itemKeys {
			itemData[j] = item[k]
		}
		tableData = append(tableData, itemData)
	}

	if quiet {
		return nil
	}

	switch format {
	case "json":
		b, err := json.Marshal(allResult)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	case "yaml":
		b, err := yaml.Marshal(allResult)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(b))
	default:
		if len(tableData) == 0 {
			fmt.Fprintln(w, "nothing to display...")
			return nil
		}
		header := make([]string, len(tableHeader))
		for i := range tableHeader {
			header[i] = strings.ToTitle(tableHeader[i])
		}
		table := tablewriter.NewWriter(w)
		table.SetHeader(header)
		table.AppendBulk(tableData)
		table.Render()
	}
	return nil
}

func listItem(i interface{}, filters map[string]string, quiet bool, fields []string, verbose bool, res map[string]string) map[string]string {
	var s reflect.Value
	if reflect.ValueOf(i).Kind() == reflect.Ptr {
		s = reflect.ValueOf(i).Elem()
	} else {
		s = reflect.ValueOf(i)
	}

	if s.Kind() == reflect.Map {
		m, _ := dump.ToStringMap(i)
		return m
	}

	if s.Kind() != reflect.Struct {
		return nil
	}

	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		structField := t.Field(i)
		if !structField.IsExported() {
			continue
		}
		if f.Kind() == reflect.Ptr {
			f = f.Elem()
		}
		switch f.Kind() {
		case reflect.Array, reflect.Slice, reflect.Map:
			continue
		}
		if structField.Anonymous && f.Kind() == reflect.Struct {
			if res = listItem(f.Interface(), filters, quiet, fields, verbose, res); res == nil {
				return nil
			}
			continue
		}

		tag := structField.Tag.Get("cli")
		if tag == "-" {
			continue
		}

		var isKey bool
		if strings.HasSuffix(tag, ",key") {
			isKey = true
			tag = strings.TrimSuffix(tag, ",key")
		}
		if !verbose && tag == "" {
			continue
		}
		if tag == "" {
			tag = structField.Name
		}

		var value string
		if f.IsValid() {
			value = fmt.Sprintf("%v", f.Interface())
		}

		// if the value doesn't match a filter on this tag the item is not displayed
		for k, v := range filters {
			if !strings.EqualFold(k, tag) {
				continue
			}
			if !strings.HasPrefix(v, "^") {
				v = "^" + v
			}
			if !strings.HasSuffix(v, "$") {
				v = v + "$"
			}
			match, err := regexp.MatchString(v, value)
			if err != nil || !match {
				return nil
			}
		}

		// fields list is ignored in quiet mode
		if !quiet && len(fields) > 0 {
			var visible bool
			for _, ff := range fields {
				if strings.EqualFold(ff, tag) {
					visible = true
					break
				}
			}
			if !visible {
				continue
			}
		}

		if !quiet {
			res[tag] = value
		} else if isKey {
			res["key"] = value
		}
	}
	return res
}
