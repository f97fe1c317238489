// Package stream implements the group-level read and write cursors over
// package wire's framing: MessageIterator for reading a sequence of
// type-tagged message groups, and MessageEmitter for writing them with
// coalescing and group-boundary notifications.
package stream
