package log

import "github.com/sirupsen/logrus"

// BadgerLogger implements badger.Logger on top of a logrus entry.
// Badger reports compactions and value log GC at Info; those are demoted
// to Debug so a normal build log stays readable.
type BadgerLogger struct {
	entry *logrus.Entry
}

// NewBadgerLogger creates a badger logger tagged with component=badgerdb
func NewBadgerLogger(entry *logrus.Entry) *BadgerLogger {
	return &BadgerLogger{entry: entry.WithField("component", "badgerdb")}
}

// Errorf logs an error message
func (l *BadgerLogger) Errorf(f string, v ...interface{}) { l.entry.Errorf(f, v...) }

// Warningf logs a warning message
func (l *BadgerLogger) Warningf(f string, v ...interface{}) { l.entry.Warnf(f, v...) }

// Infof logs at debug level
func (l *BadgerLogger) Infof(f string, v ...interface{}) { l.entry.Debugf(f, v...) }

// Debugf logs at trace level
func (l *BadgerLogger) Debugf(f string, v ...interface{}) { l.entry.Tracef(f, v...) }
