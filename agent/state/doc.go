// Package state defines the persisted cognitive state, a pair-array codec
// for maps and the default-aware merge used when snapshots are loaded.
package state
