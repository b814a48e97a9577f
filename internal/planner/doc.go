// Package planner maps scanned audiobooks onto their templated destinations.
//
// Build produces the organize plan: operations to perform, destinations that
// collide, files whose destination already holds byte-identical content, and
// files whose metadata cannot fill the template. BuildFix does the same for a
// library that is already organized, separating compliant files from files
// that need renaming.
//
// Planning never fails. Collisions and unreadable state are reported as
// Conflict records so nothing is silently overwritten. Output slices are
// sorted, so repeated runs over the same tree produce identical plans even
// though hashing runs concurrently.
package planner
