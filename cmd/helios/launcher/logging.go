package launcher

import (
	"github.com/evalphobia/logrus_sentry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var verbosityLevels = map[int]logrus.Level{
	0: logrus.FatalLevel,
	1: logrus.ErrorLevel,
	2: logrus.WarnLevel,
	3: logrus.InfoLevel,
	4: logrus.DebugLevel,
	5: logrus.TraceLevel,
}

// SetupLogging configures the process-wide logger: level, format and the
// optional Sentry hook for error reporting.
func SetupLogging(cfg LoggingConfig) error {
	level, ok := verbosityLevels[cfg.Verbosity]
	if !ok {
		return errors.Errorf("invalid log verbosity %d (valid: 0..5)", cfg.Verbosity)
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
			FullTimestamp: true,
		})
	default:
		return errors.Errorf("invalid log format %q (valid: text, json)", cfg.Format)
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return errors.Wrap(err, "creating sentry hook")
		}
		hook.StacktraceConfiguration.Enable = true
		logrus.AddHook(hook)
	}
	return nil
}
