// Package publish broadcasts replayed events to websocket subscribers.
//
// The hub fans each event out to every connected client as a JSON text
// message. The replay loop never blocks on a subscriber: a client whose
// send queue is full is dropped. Intended for live visualization of a
// replay in progress; the replay result does not depend on it.
package publish
