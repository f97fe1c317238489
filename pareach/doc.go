// Package pareach runs a callback over same-tagged messages pulled from a
// stream.MessageIterator, batching and dispatching pairs of them across
// goroutines so decode-and-process work overlaps with itself the way it
// would across OpenMP tasks in the format this library's wire layer was
// modeled on.
//
// Messages are handed to the pair callback two at a time, in order within
// each pair, but the order in which pairs across the whole stream are
// processed is not guaranteed. A single odd trailing message, if any, goes
// to a separate callback. ForEach and ForEachInterleavedPair build on top of
// ForEachPaired for the common single-item and must-be-even cases.
package pareach
