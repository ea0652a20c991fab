// Package logging provides named logrus loggers sharing one level, format and
// output configuration.
package logging
