package pointid

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"subvec/internal/domain"
)

// namespacePrefix scopes derived UUIDs so other producers writing into
// the same store cannot collide with ours by raw-id coincidence.
const namespacePrefix = "subvec:"

// FromRaw maps an arbitrary external identifier to a store-accepted
// point key. The mapping is total and deterministic: the same raw id
// always yields the same key, which is what makes re-ingestion an
// overwrite instead of a duplicate.
//
//   - all-digit strings become the parsed integer
//   - canonical UUIDs pass through in canonical form
//   - anything else maps to a name-based UUIDv5 in the URL namespace
//
// An all-digit id too large for uint64 cannot use the integer form; it
// is logged and derived as a UUIDv5 instead, keeping determinism.
func FromRaw(raw string) domain.PointKey {
	if isDigits(raw) {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			return domain.NumericKey(n)
		}
		slog.Warn("numeric point id overflows uint64, deriving uuid", "raw", raw)
	}
	if u, err := uuid.Parse(raw); err == nil {
		return domain.StringKey(u.String())
	}
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespacePrefix+raw))
	return domain.StringKey(u.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
