// Package query filters, sorts and searches track lists in memory.
//
// Every function is pure: inputs are never modified and the relative order of
// tracks is preserved wherever the result is not explicitly ranked.
package query
