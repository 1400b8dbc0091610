package watch

import "github.com/minio/highwayhash"

var hashKey = []byte("newmars-watch-content-hash-key!!")

// contentHash fingerprints file content so rewrites with identical bytes are dropped.
func contentHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}
