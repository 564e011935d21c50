// Package storage houses concrete implementations of core.TaskStore. The
// interface itself lives in the core package so that agents never depend on
// a concrete backend; only the wiring layer decides which one to use.
//
// InMemoryStore keeps tasks in a process local map. Durable backends live in
// sub-packages (see storage/sqlite).
package storage
