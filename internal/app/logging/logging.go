// Package logging configures the engine's structured logger. Grounded on
// zhukovaskychina-xmysql-server/logger/logger.go, which wraps logrus with a
// custom formatter and a component field; this is the same shape scaled
// down to what the storage engine needs.
package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// componentFormatter renders "HH:MM:SS LEVEL [component] message".
type componentFormatter struct{}

func (componentFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	component, _ := entry.Data["component"].(string)

	var line string
	if component != "" {
		line = fmt.Sprintf("%s %-5s [%s] %s\n",
			entry.Time.Format("15:04:05"), level, component, entry.Message)
	} else {
		line = fmt.Sprintf("%s %-5s %s\n",
			entry.Time.Format("15:04:05"), level, entry.Message)
	}
	return []byte(line), nil
}

// base is the root logger every component logger derives from.
var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(componentFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the verbosity of every component logger (e.g. to
// logrus.DebugLevel to see the per-block read/write trace described in
// SPEC_FULL.md §C.3).
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// For returns a logger scoped to the named subsystem (file, log, buffer,
// tx, engine), so log lines can be filtered by component.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
