package generators

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newObjectKey builds a unique object store key for a generated asset of
// the given kind ("image", "video", "music").
func newObjectKey(kind string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("generated/%s/%s", kind, hex.EncodeToString(b[:]))
}
