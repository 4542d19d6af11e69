package thumbkit

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// CacheKey derives a stable content-addressed key for a thumbnail of src at
// the given bounds and quality. Two calls return the same key exactly when
// the source bytes and encode parameters match, so the key can name cached
// outputs or skip regeneration.
//
// xxHash is used for speed; the key is an integrity/identity token, not a
// cryptographic digest.
func CacheKey(src []byte, width, height, quality int) string {
	d := xxhash.New()
	_, _ = d.Write(src)

	var params [12]byte
	binary.BigEndian.PutUint32(params[0:4], uint32(width))
	binary.BigEndian.PutUint32(params[4:8], uint32(height))
	binary.BigEndian.PutUint32(params[8:12], uint32(quality))
	_, _ = d.Write(params[:])

	return fmt.Sprintf("%016x", d.Sum64())
}
