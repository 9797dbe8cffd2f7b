// Package memberquery searches members and their teams with optional filters
// and pages the results, either always counting or counting only when the
// page cannot tell the total.
package memberquery
