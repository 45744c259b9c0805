package chunkstore

// Key prefixes for the badger index. Each chunk row lives under
// "chunk:" and each link row under "link:", keeping the two families
// independently scannable.
const (
	prefixChunk = "chunk:"
	prefixLink  = "link:"

	keyInstanceID = "meta:instance_id"
)

func keyChunk(chunkID string) []byte {
	return []byte(prefixChunk + chunkID)
}

func keyLink(srcObjID string) []byte {
	return []byte(prefixLink + srcObjID)
}
