package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for names that recur across the analysis pipeline.
func Step(name string) Field {
	return String("step", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Items(n int) Field {
	return Int("items", n)
}

func Rows(n int) Field {
	return Int("rows", n)
}

func Edges(n int) Field {
	return Int("edges", n)
}

func Resamples(n int) Field {
	return Int("resamples", n)
}

func Elapsed(d time.Duration) Field {
	return Duration("elapsed", d)
}

func Path(p string) Field {
	return String("path", p)
}
