// Package feed provides the buffer that decouples the synchronous replay
// loop from asynchronous consumers (archive writers, publishers).
//
// The replay loop must never block on a slow consumer, so Send grows the
// buffer instead of waiting. Consumers drain with Receive/TryReceive and
// observe Close as end of stream.
package feed
