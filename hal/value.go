//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package hal

import (
	"fmt"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
)

// DType defines the logical type of a value.
type DType int

// Logical types.
const (
	DTInvalid DType = iota
	DTInt
	DTFxp
)

var dtypeNames = map[DType]string{
	DTInvalid: "invalid",
	DTInt:     "int",
	DTFxp:     "fxp",
}

func (dt DType) String() string {
	name, ok := dtypeNames[dt]
	if ok {
		return name
	}
	return fmt.Sprintf("{DType %d}", int(dt))
}

// Visibility defines whether a value is known to all parties.
type Visibility int

// Visibilities.
const (
	Public Visibility = iota
	Secret
)

func (vis Visibility) String() string {
	switch vis {
	case Public:
		return "public"
	case Secret:
		return "secret"
	default:
		return fmt.Sprintf("{Visibility %d}", int(vis))
	}
}

// Repr defines the representation of a value's data.
type Repr int

// Representations. Public values are always plain.
const (
	ReprPlain Repr = iota
	ReprArith
	ReprBool
)

func (r Repr) String() string {
	switch r {
	case ReprPlain:
		return "plain"
	case ReprArith:
		return "arith"
	case ReprBool:
		return "bool"
	default:
		return fmt.Sprintf("{Repr %d}", int(r))
	}
}

// Value implements a tensor value. The data of secret values holds
// the party's shares. Values are immutable except for the one time
// assignment of the logical type.
type Value struct {
	dtype DType
	vis   Visibility
	repr  Repr
	shape ring.Shape
	data  ring.Array
}

// MakeValue creates a value from its parts.
func MakeValue(dtype DType, vis Visibility, repr Repr, shape ring.Shape,
	data ring.Array) (*Value, error) {

	switch vis {
	case Public:
		if repr != ReprPlain {
			return nil, env.Errorf(env.ConfigurationError, "value",
				"public value with %v representation", repr)
		}
	case Secret:
		if repr != ReprArith && repr != ReprBool {
			return nil, env.Errorf(env.ConfigurationError, "value",
				"secret value with %v representation", repr)
		}
	default:
		return nil, env.Errorf(env.ConfigurationError, "value",
			"invalid visibility %v", vis)
	}
	for _, d := range shape {
		if d < 0 {
			return nil, env.Errorf(env.ConfigurationError, "value",
				"invalid shape %v", shape)
		}
	}
	if shape.Numel() != data.Len() {
		return nil, env.Errorf(env.ConfigurationError, "value",
			"shape %v does not match %d elements", shape, data.Len())
	}
	if !data.Field.Valid() {
		return nil, env.Errorf(env.ConfigurationError, "value",
			"invalid field %v", data.Field)
	}
	return &Value{
		dtype: dtype,
		vis:   vis,
		repr:  repr,
		shape: append(ring.Shape(nil), shape...),
		data:  data,
	}, nil
}

func newValue(dtype DType, vis Visibility, repr Repr, shape ring.Shape,
	data ring.Array) *Value {
	return &Value{
		dtype: dtype,
		vis:   vis,
		repr:  repr,
		shape: shape,
		data:  data,
	}
}

func (v *Value) String() string {
	return fmt.Sprintf("%v %v %v%v", v.vis, v.dtype, v.repr, v.shape)
}

// DType returns the logical type.
func (v *Value) DType() DType {
	return v.dtype
}

// SetDType sets the logical type. The type can be set once unless
// force is true.
func (v *Value) SetDType(dtype DType, force bool) error {
	if v.dtype != DTInvalid && v.dtype != dtype && !force {
		return env.Errorf(env.ConfigurationError, "dtype",
			"value already has type %v", v.dtype)
	}
	v.dtype = dtype
	return nil
}

// Visibility returns the value's visibility.
func (v *Value) Visibility() Visibility {
	return v.vis
}

// IsPublic tests if the value is public.
func (v *Value) IsPublic() bool {
	return v.vis == Public
}

// IsSecret tests if the value is secret.
func (v *Value) IsSecret() bool {
	return v.vis == Secret
}

// Repr returns the value's representation.
func (v *Value) Repr() Repr {
	return v.repr
}

// Shape returns the value's shape.
func (v *Value) Shape() ring.Shape {
	return v.shape
}

// Numel returns the number of elements.
func (v *Value) Numel() int {
	return v.data.Len()
}

// Data returns the value's plain data or the party's shares.
func (v *Value) Data() ring.Array {
	return v.data
}
