package neuralnet

import (
	"fmt"
	"math"
)

// ConfigurationError reports an unknown strategy tag or an invalid
// hyperparameter. It is returned at construction time, never during training.
type ConfigurationError struct {
	Field string
	Value interface{}
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("neuralnet: invalid %s %v: %s", e.Field, e.Value, e.Msg)
}

func configErr(field string, value interface{}, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Value: value, Msg: fmt.Sprintf(format, args...)}
}

// ShapeError reports a matrix whose dimensions do not fit the operation.
// A negative WantRows or WantCols means that dimension is unconstrained.
type ShapeError struct {
	Op                 string
	Rows, Cols         int
	WantRows, WantCols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("neuralnet: %s: got %dx%d, want %sx%s",
		e.Op, e.Rows, e.Cols, dimString(e.WantRows), dimString(e.WantCols))
}

func dimString(d int) string {
	if d < 0 {
		return "*"
	}
	return fmt.Sprint(d)
}

// finite clamps infinities to the largest representable float of the same sign.
func finite(x float64) float64 {
	switch {
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	}
	return x
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
