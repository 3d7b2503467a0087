// Copyright 2024 the rastermath authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rastermath

import "math"

// DataType is a pixel data type
type DataType int

const (
	//Unknown / Unset Datatype
	Unknown DataType = iota
	//Byte / UInt8
	Byte
	//UInt16 DataType
	UInt16
	//Int16 DataType
	Int16
	//UInt32 DataType
	UInt32
	//Int32 DataType
	Int32
	//Float32 DataType
	Float32
	//Float64 DataType
	Float64
)

// String implements Stringer
func (dtype DataType) String() string {
	switch dtype {
	case Byte:
		return "Byte"
	case UInt16:
		return "UInt16"
	case Int16:
		return "Int16"
	case UInt32:
		return "UInt32"
	case Int32:
		return "Int32"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return "Unknown"
	}
}

// Size returns the number of bytes needed for one instance of DataType
func (dtype DataType) Size() int {
	switch dtype {
	case Byte:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unsupported type")
	}
}

// MinimumDataType returns the smallest DataType able to losslessly store
// values spanning [min,max]. The domain is considered integral when both
// bounds are whole numbers, floating otherwise.
func MinimumDataType(min, max float64) DataType {
	if min > max {
		min, max = max, min
	}
	if isWhole(min) && isWhole(max) {
		if min >= 0 {
			switch {
			case max <= 255:
				return Byte
			case max <= 65535:
				return UInt16
			default:
				return UInt32
			}
		}
		if min > -65535 {
			return Int16
		}
		return Int32
	}
	if math.Max(math.Abs(min), math.Abs(max)) <= 3.4e+38 {
		return Float32
	}
	return Float64
}

// isWhole reports whether v is a whole number small enough to be treated
// as integer valued. Beyond 2^53 every float64 truncates to itself, so
// magnitude also bounds the check.
func isWhole(v float64) bool {
	return v == math.Trunc(v) && math.Abs(v) < 1<<53 && !math.IsInf(v, 0)
}
