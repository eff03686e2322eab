// Package verify runs the end-to-end level-selection check.
//
// A Runner opens one browser session, records every console message the page
// emits, loads the target URL, then:
//
//  1. waits (bounded) for the level buttons to exist
//  2. clicks the "Level 1" button by role and accessible name
//  3. asserts the game UI is visible
//  4. screenshots the course element to the configured path
//
// If any of those waits expires the runner prints
//
//	Timeout while waiting for elements.
//	Console logs:
//
// followed by each buffered console line, and returns normally. Other
// failures are returned to the caller. The session is released on every path.
package verify
