// Package core implements the directory-cloning synchronization pipeline:
// path snapshots, the command-based clone transaction, and the clone
// manager that ties them together on each sync tick.
package core
