package calendar

import (
	"fmt"
	"strings"
)

// RollingConvention maps a non-business day onto a business day.
type RollingConvention int

const (
	// Unadjusted leaves the date alone.
	Unadjusted RollingConvention = iota
	// Following picks the first business day on or after the date.
	Following
	// ModifiedFollowing is Following unless that changes the month, in
	// which case it is Preceding.
	ModifiedFollowing
	// Preceding picks the last business day on or before the date.
	Preceding
	// ModifiedPreceding is Preceding unless that changes the month, in
	// which case it is Following.
	ModifiedPreceding
	// MonthEndReference is ModifiedFollowing that also keeps dates derived
	// from a month-end origin on the last business day of their month.
	MonthEndReference
)

var conventionNames = map[RollingConvention]string{
	Unadjusted:        "Unadjusted",
	Following:         "Following",
	ModifiedFollowing: "ModifiedFollowing",
	Preceding:         "Preceding",
	ModifiedPreceding: "ModifiedPreceding",
	MonthEndReference: "MonthEndReference",
}

var conventionAliases = map[string]RollingConvention{
	"u":   Unadjusted,
	"f":   Following,
	"mf":  ModifiedFollowing,
	"p":   Preceding,
	"mp":  ModifiedPreceding,
	"mer": MonthEndReference,
}

// IsValid reports whether c is one of the defined conventions.
func (c RollingConvention) IsValid() bool {
	_, ok := conventionNames[c]
	return ok
}

func (c RollingConvention) String() string {
	if name, ok := conventionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RollingConvention(%d)", int(c))
}

// ParseRollingConvention accepts a full name in any case ("modifiedfollowing")
// or a short code ("MF", "MER").
func ParseRollingConvention(s string) (RollingConvention, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := conventionAliases[key]; ok {
		return c, nil
	}
	for c, name := range conventionNames {
		if strings.ToLower(name) == key {
			return c, nil
		}
	}
	return Unadjusted, fmt.Errorf("%w: %q", ErrUnknownConvention, s)
}

// Conventions returns all defined conventions in declaration order.
func Conventions() []RollingConvention {
	return []RollingConvention{
		Unadjusted,
		Following,
		ModifiedFollowing,
		Preceding,
		ModifiedPreceding,
		MonthEndReference,
	}
}
