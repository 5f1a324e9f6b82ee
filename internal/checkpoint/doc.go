// Package checkpoint persists session state snapshots so a suspended
// pipeline can be resumed later, including across process restarts when
// the file-backed store is used.
package checkpoint
