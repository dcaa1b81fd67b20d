package lower

import (
	"strconv"
	"strings"
)

// entryGlobalName builds the name of one entry-global from the kind, the
// target function's name, the per-module identifier, and the registration
// priority. The function name plus priority already distinguishes entries
// within a module; the identifier adds cross-module uniqueness. The priority
// suffix is informational only: entries are consumed in emission order, not
// re-sorted by priority.
func entryGlobalName(isCtor bool, fn, id string, priority int64) string {
	prefix := "__fini_array_object_"
	if isCtor {
		prefix = "__init_array_object_"
	}
	name := prefix + fn + "_" + id + "_" + strconv.FormatInt(priority, 10)
	// PTX does not support exported names with '.' in them.
	return strings.ReplaceAll(name, ".", "_")
}
