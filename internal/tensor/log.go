package tensor

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "tensor")

// SetLogger redirects the package logs (and the logs of backends built on Logger)
// to l. Passing nil restores the logrus standard logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger = l
	log = l.WithField("component", "tensor")
}

var logger = logrus.StandardLogger()

// Logger returns an entry tagged with the given component name.
func Logger(component string) *logrus.Entry {
	return logger.WithField("component", component)
}
