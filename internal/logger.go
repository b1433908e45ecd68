// Copyright 2015 Ka-Hing Cheung
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var mu sync.Mutex
var loggers = make(map[string]*logHandle)

var framePlaceHolder = runtime.Frame{Function: "???", File: "???", Line: 0}

var logger = GetLogger("huffpar_internal")

const logTimeFormat = "2006/01/02 15:04:05.000000"

type logHandle struct {
	logrus.Logger

	name     string
	logid    string
	pid      int
	lvl      *logrus.Level
	colorful bool
	json     *logrus.JSONFormatter
}

func levelColor(lvl logrus.Level) int {
	switch lvl {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return 31 // RED
	case logrus.WarnLevel:
		return 33 // YELLOW
	case logrus.InfoLevel:
		return 34 // BLUE
	default: // logrus.TraceLevel, logrus.DebugLevel
		return 35 // MAGENTA
	}
}

// Format prints `[logid]time name[pid] <LEVEL>: msg [func@file:line] k=v ...`, or one JSON
// object per line once SetJSONOutput was called.
func (l *logHandle) Format(e *logrus.Entry) ([]byte, error) {
	if l.json != nil {
		return l.formatJSON(e)
	}
	lvl := e.Level
	if l.lvl != nil {
		lvl = *l.lvl
	}
	lvlStr := strings.ToUpper(lvl.String())
	if l.colorful {
		lvlStr = fmt.Sprintf("\033[1;%dm%s\033[0m", levelColor(lvl), lvlStr)
	}
	caller := e.Caller
	if caller == nil {
		caller = &framePlaceHolder
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%v %s[%d] <%v>: %v [%s@%s:%d]",
		l.logid,
		e.Time.Format(logTimeFormat),
		l.name,
		l.pid,
		lvlStr,
		strings.TrimRight(e.Message, "\n"),
		MethodName(caller.Function),
		path.Base(caller.File),
		caller.Line)
	for _, k := range sortedKeys(e.Data) {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (l *logHandle) formatJSON(e *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(e.Data)+3)
	for k, v := range e.Data {
		data[k] = v
	}
	data["logger"] = l.name
	data["pid"] = l.pid
	if id := strings.Trim(l.logid, "[] "); id != "" {
		data["run"] = id
	}
	entry := *e
	entry.Data = data
	return l.json.Format(&entry)
}

func sortedKeys(f logrus.Fields) []string {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MethodName returns a human-readable method name, removing internal markers added by Go
func MethodName(fullFuncName string) string {
	if i := strings.Index(fullFuncName, "/"); i != -1 && i < len(fullFuncName)-1 {
		fullFuncName = fullFuncName[i+1:]
	}
	lastDot := strings.LastIndex(fullFuncName, ".")
	if lastDot == -1 || lastDot == len(fullFuncName)-1 {
		return fullFuncName
	}
	method := fullFuncName[lastDot+1:]
	// closures (func1) and numbered init functions (init.3) take the enclosing name
	if isClosureName(method) || (len(method) == 1 && method[0] >= '0' && method[0] <= '9') {
		if candidate := MethodName(fullFuncName[:lastDot]); candidate != "" {
			method = candidate
		}
	}
	return method
}

func isClosureName(s string) bool {
	return strings.HasPrefix(s, "func") && len(s) > 4 && s[4] >= '0' && s[4] <= '9'
}

func newLogger(name string) *logHandle {
	l := &logHandle{Logger: *logrus.New(), name: name, pid: os.Getpid()}
	l.Formatter = l
	l.colorful = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	l.SetReportCaller(true)
	return l
}

// GetLogger returns a logger mapped to `name`
func GetLogger(name string) *logHandle {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[name]; ok {
		return logger
	}
	logger := newLogger(name)
	loggers[name] = logger
	return logger
}

func forEachLogger(fn func(l *logHandle)) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		fn(l)
	}
}

// SetLogLevel sets Level to all the loggers in the map
func SetLogLevel(lvl logrus.Level) {
	forEachLogger(func(l *logHandle) { l.SetLevel(lvl) })
}

// ParseLogLevel maps the --loglevel flag onto a logrus level, falling back to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func DisableLogColor() {
	forEachLogger(func(l *logHandle) { l.colorful = false })
}

// SetJSONOutput switches every logger to one JSON object per line.
func SetJSONOutput() {
	forEachLogger(func(l *logHandle) {
		l.json = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	})
}

// SetOutFile sends every logger to a daily rotated file; `name` becomes a symlink to the newest one.
func SetOutFile(name string) error {
	logf, err := rotatelogs.New(
		name+".%Y%m%d",
		rotatelogs.WithLinkName(name),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithRotationSize(100*1024*1024),
	)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", name, err)
	}
	forEachLogger(func(l *logHandle) {
		l.SetOutput(logf)
		l.colorful = false
	})
	return nil
}

func SetOutput(w io.Writer) {
	forEachLogger(func(l *logHandle) { l.SetOutput(w) })
}

// SetLogID prefixes every line with id, used to tell concurrent runs apart in a shared log file.
func SetLogID(id string) {
	forEachLogger(func(l *logHandle) { l.logid = id })
}
