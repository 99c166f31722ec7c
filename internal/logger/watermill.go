package logger

import "github.com/ThreeDotsLabs/watermill"

// watermillLogger adapts our Logger to watermill's logging interface
type watermillLogger struct {
	logger *Logger
	fields watermill.LogFields
}

// GetWatermillLogger returns a watermill-compatible logger
func (l *Logger) GetWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{logger: l}
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Errorw(msg, append(w.keyvals(fields), "error", err)...)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Infow(msg, w.keyvals(fields)...)
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keyvals(fields)...)
}

// Trace is folded into debug, zap has no lower level
func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keyvals(fields)...)
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}

func (w *watermillLogger) keyvals(fields watermill.LogFields) []interface{} {
	all := w.fields.Add(fields)
	kv := make([]interface{}, 0, len(all)*2)
	for k, v := range all {
		kv = append(kv, k, v)
	}
	return kv
}
