package shiplog

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mgutz/ansi"
	"github.com/rockbears/log"
	"github.com/sirupsen/logrus"
)

// Formatter prints colored one line entries for terminals.
type Formatter struct {
	// Fields restricts the printed fields. All fields are printed when empty.
	Fields              []string
	DisabledPrintFields bool
}

// Format format a log
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var keys = make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "prefix" || !f.visible(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := &bytes.Buffer{}
	prefixFieldClashes(entry.Data)
	f.printColored(b, entry, keys)

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *Formatter) visible(k string) bool {
	if len(f.Fields) == 0 || k == string(log.FieldStackTrace) {
		return true
	}
	for _, field := range f.Fields {
		if field == k {
			return true
		}
	}
	return false
}

func (f *Formatter) printColored(b *bytes.Buffer, entry *logrus.Entry, keys []string) {
	var levelColor string
	switch entry.Level {
	case logrus.InfoLevel:
		levelColor = ansi.Green
	case logrus.WarnLevel:
		levelColor = ansi.Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = ansi.Red
	default:
		levelColor = ansi.Blue
	}

	levelText := strings.ToUpper(entry.Level.String())
	if entry.Level == logrus.WarnLevel {
		levelText = "WARN"
	}

	fmt.Fprintf(b, "%s %s%+7s%s %s", entry.Time.Format("15:04:05"), levelColor, "["+levelText+"]", ansi.Reset, entry.Message)

	for _, k := range keys {
		if !f.DisabledPrintFields || k == string(log.FieldStackTrace) {
			fmt.Fprintf(b, " %s%s%s=%+v", levelColor, k, ansi.Reset, entry.Data[k])
		}
	}
}

func prefixFieldClashes(data logrus.Fields) {
	if _, ok := data["time"]; ok {
		data["fields.time"] = data["time"]
	}
	if _, ok := data["msg"]; ok {
		data["fields.msg"] = data["msg"]
	}
	if _, ok := data["level"]; ok {
		data["fields.level"] = data["level"]
	}
}
