// Package testutil provides lifecycle helpers for test components such as
// the fake upstream servers in resttest.
//
// A TestComponent is a component.Component that can also be reset and
// snapshotted between test cases:
//
//	func TestItems(t *testing.T) {
//	    srv := resttest.NewServer()
//	    testutil.T(t).Setup(srv)
//	    // srv is stopped when the test ends
//	}
package testutil
