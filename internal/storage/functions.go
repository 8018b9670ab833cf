package storage

import (
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"medrag/internal/vecmath"
)

var registerFunctionsOnce sync.Once

// registerVectorFunctions registers the deterministic scalar SQL functions
// vec_cosine, vec_l2 and vec_dot with the sqlite driver. Registration is
// process-wide and applies to connections opened after the call; the driver
// rejects duplicates, so errors are ignored.
func registerVectorFunctions() {
	registerFunctionsOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
		_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
		_ = sqlite.RegisterDeterministicScalarFunction("vec_dot", 2, vecDotImpl)
	})
}

func asVector(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return DecodeVector(v)
	default:
		return nil, fmt.Errorf("storage: unsupported embedding argument type %T, want BLOB", arg)
	}
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := vectorPair("vec_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vecmath.Cosine(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := vectorPair("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vecmath.L2(a, b)
}

func vecDotImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := vectorPair("vec_dot", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vecmath.Dot(a, b)
}

func vectorPair(fn string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", fn, len(args))
	}
	a, err := asVector(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asVector(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
