// Package reference parses freeform pasted text into canonical product
// reference tokens and provides the name-normalization and boundary
// matching rules shared by the traversal engine.
//
// A reference is an alphanumeric product code: an optional prefix of 2-4
// letters followed by 3-5 digits ("BLZ 6472", "BLZ-6472" and "blz6472"
// all normalize to the key "BLZ6472"). Text that does not start with a
// valid reference is silently discarded, which lets compound strings like
// "GLW 3201 - BLZ 6472 - INSTRUCTIVO" yield exactly the embedded
// references.
package reference
