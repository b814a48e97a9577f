// Package merge reconciles audiobook metadata reported by several labeled
// sources with the value already stored in the file.
//
// Every tracked field is merged independently into one of three states:
// Agreed (all values equal), Conflicting (at least two distinct values), or
// Empty (no values). Distinct values keep the order in which they were first
// seen so the edit form can regenerate the same alternatives every time.
// A trusted source label can then settle conflicts without user review.
package merge
