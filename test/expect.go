// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package test provides a small set of assertion helpers shared by this
// module's package-level tests.
package test

import (
	"math"
	"reflect"
	"testing"
)

// ExpectEquality fails the test unless got equals want.
func ExpectEquality(t *testing.T, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected value: got %v, wanted %v", got, want)
	}
}

// ExpectInequality fails the test if got equals notWant.
func ExpectInequality(t *testing.T, got, notWant interface{}) {
	t.Helper()
	if reflect.DeepEqual(got, notWant) {
		t.Errorf("unexpected equality: %v", got)
	}
}

// ExpectApproximate fails the test unless got is within tolerance of want.
func ExpectApproximate(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("value not within tolerance: got %v, wanted %v (+/- %v)", got, want, tolerance)
	}
}

// isFailure reports whether v represents a falsy/error result. A bare nil
// (including a nil error stored in an interface{}) is treated as success.
func isFailure(v interface{}) bool {
	switch w := v.(type) {
	case bool:
		return !w
	case error:
		return w != nil
	case nil:
		return false
	}
	return false
}

// ExpectFailure fails the test unless v represents a falsy bool or a non-nil
// error. A literal nil counts as success, so it fails the test.
func ExpectFailure(t *testing.T, v interface{}) {
	t.Helper()
	if !isFailure(v) {
		t.Errorf("expected failure, got %v", v)
	}
}

// ExpectSuccess fails the test unless v represents a truthy bool or a nil error.
func ExpectSuccess(t *testing.T, v interface{}) {
	t.Helper()
	if isFailure(v) {
		t.Errorf("expected success, got %v", v)
	}
}
