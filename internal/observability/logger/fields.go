package logger

import "go.uber.org/zap"

// Standard fields so log keys stay consistent across components.

// CUIT tags an entry with a client tax identifier.
func CUIT(v string) zap.Field {
	return zap.String("cuit", v)
}

// Evaluation tags an entry with a portfolio evaluation id.
func Evaluation(v string) zap.Field {
	return zap.String("evaluation_id", v)
}

// Component names the emitting component.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Count is a generic row/entry count.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String is a generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Err wraps an error value.
func Err(err error) zap.Field {
	return zap.Error(err)
}
