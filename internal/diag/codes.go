package diag

import (
	"fmt"
)

// Code is a compact numeric identifier with a stable string form.
type Code uint16

const (
	UnknownCode Code = 0

	// Input reader errors.
	ReadInfo           Code = 1000
	ReadBadDirective   Code = 1001
	ReadBadIndent      Code = 1002
	ReadUnknownKind    Code = 1003
	ReadMissingName    Code = 1004
	ReadBadType        Code = 1005
	ReadOrphanChild    Code = 1006
	ReadDuplicateLabel Code = 1007

	// Lowering (declaration materializer) errors.
	LowInfo                Code = 3000
	LowDuplicateDefinition Code = 3001
	LowMissingParameter    Code = 3002
	LowRedeclaredSymbol    Code = 3003
	LowUnknownStorage      Code = 3004
	LowIncompleteType      Code = 3005

	// Driver errors.
	DrvInfo        Code = 4000
	DrvNoInput     Code = 4001
	DrvCacheStale  Code = 4002
	DrvUnitFailed  Code = 4003
	DrvBadManifest Code = 4004
)

func (c Code) String() string {
	switch {
	case c >= 4000:
		return fmt.Sprintf("DRV%04d", uint16(c))
	case c >= 3000:
		return fmt.Sprintf("LOW%04d", uint16(c))
	case c >= 1000:
		return fmt.Sprintf("RDR%04d", uint16(c))
	default:
		return fmt.Sprintf("UNK%04d", uint16(c))
	}
}
