// Package task implements the in-process background scheduler that runs
// long-running media-processing and AI-analysis jobs without blocking HTTP
// request handling. A Scheduler owns a fixed pool of workers draining a
// shared FIFO queue of pending task ids and a registry tracking every
// task's lifecycle, progress, and outcome. Callers submit opaque work
// units, poll status snapshots, cancel pending tasks, and register
// completion callbacks; terminal tasks are removed by a periodic retention
// sweep driven from outside the package.
package task
