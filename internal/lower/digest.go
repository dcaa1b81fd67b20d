package lower

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// moduleID returns a short stable identifier derived from a module's source
// filename: the low 64 bits of its MD5 digest, rendered as 16 lowercase hex
// digits. It disambiguates entry-global names across modules when no
// explicit override is configured.
func moduleID(s string) string {
	sum := md5.Sum([]byte(s))
	return fmt.Sprintf("%016x", binary.LittleEndian.Uint64(sum[:8]))
}
