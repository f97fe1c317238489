// Package vpkg is the generic front end over packages registry and stream:
// load a Go value of some wanted type from a stream that might be a bare,
// foreign-format file or a type-tagged container, trying bare loaders
// before encapsulated ones; and save a value using whichever saver the
// registry has for its type.
package vpkg
