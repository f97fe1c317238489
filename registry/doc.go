// Package registry binds group tags to Go types in both directions: given a
// tag, what type(s) can load it; given a type, what tag to save it under.
// It is the type-erased core beneath package vpkg's generic front end.
//
// A tag may be bound to more than one type (a caller picks which type it
// wants when loading), but a type's save tag is injective: once a type has
// a save tag, every later attempt to give it a different one is rejected,
// matching the original library's "register once" discipline.
package registry
