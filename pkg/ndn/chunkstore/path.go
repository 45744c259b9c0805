package chunkstore

import (
	"path/filepath"
	"strings"
)

// chunkPath shards chunk bytes two levels deep by the first four
// characters of the chunk id's hash text (the part after the type
// tag), so a single directory never holds more than a few thousand
// entries.
func chunkPath(root, chunkID string) string {
	clean := strings.ReplaceAll(chunkID, ":", "_")
	body := chunkID[strings.LastIndexByte(chunkID, ':')+1:]
	a, b := "00", "00"
	if len(body) >= 2 {
		a = body[0:2]
	}
	if len(body) >= 4 {
		b = body[2:4]
	}
	return filepath.Join(root, "chunks", a, b, clean)
}

// tmpChunkPath names a writer's in-progress file. The session suffix
// keeps a fresh writer from colliding with a stale tmp file left by a
// writer that was dropped without Complete or Abort.
func tmpChunkPath(root, chunkID, session string) string {
	return chunkPath(root, chunkID) + ".tmp." + session
}

func objPath(root, objID string) string {
	clean := strings.ReplaceAll(objID, ":", "_")
	return filepath.Join(root, "objs", clean)
}
