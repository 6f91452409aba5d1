package core

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Patch fields distinguish an absent JSON key (Set=false) from an explicit null (Set, !Valid).

type OptString struct {
	null.String
	Set bool
}

func (o *OptString) UnmarshalJSON(data []byte) error {
	o.Set = true
	return o.String.UnmarshalJSON(data)
}

// Blank reports whether a set value is null or only whitespace.
func (o OptString) Blank() bool {
	return o.Set && (!o.Valid || strings.TrimSpace(o.String.String) == "")
}

func SetString(s string) OptString {
	return OptString{String: null.StringFrom(s), Set: true}
}

type OptFloat64 struct {
	null.Float64
	Set bool
}

func (o *OptFloat64) UnmarshalJSON(data []byte) error {
	o.Set = true
	return o.Float64.UnmarshalJSON(data)
}

func SetFloat64(f float64) OptFloat64 {
	return OptFloat64{Float64: null.Float64From(f), Set: true}
}

func NullFloat64() OptFloat64 {
	return OptFloat64{Set: true}
}

type OptTime struct {
	null.Time
	Set bool
}

func (o *OptTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	return o.Time.UnmarshalJSON(data)
}

func SetTime(t time.Time) OptTime {
	return OptTime{Time: null.TimeFrom(t), Set: true}
}
