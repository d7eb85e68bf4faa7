// Package cache provides a content-addressed, two-layer result cache: a
// bounded in-memory LRU in front of a durable SQLite store. Every expensive
// pipeline stage reads and writes through it.
package cache

import "fmt"

// Key addresses one cached stage output. Stage and Version namespace the
// content hash so that a pipeline upgrade can never be served an
// incompatible cached shape.
type Key struct {
	Stage   string
	Hash    string
	Version string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Stage, k.Version, k.Hash)
}

// StagePrefix returns the key prefix covering every entry a stage wrote
// under a schema version. Useful with Invalidate.
func StagePrefix(stage, version string) string {
	return fmt.Sprintf("%s/%s/", stage, version)
}
