package elu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/zlabs/elu_browser/utils"
)

// Fatal decode errors. Check with errors.Is.
var (
	ErrTruncatedInput        = utils.ErrTruncatedInput
	ErrBadMagic              = errors.New("bad magic")
	ErrUnsupportedVersion    = errors.New("unsupported version")
	ErrMalformedNameEncoding = errors.New("malformed name encoding")
	ErrIndexOutOfRange       = errors.New("index out of range")
)

// WarningKind classifies recoverable anomalies. Decoding continues after each of them.
type WarningKind int

const (
	// reserved count with a value that can not be right for this version; forced to expected value
	WarnStructuralAnomaly WarningKind = iota
	// parent name or index does not match an earlier mesh; the mesh becomes a root
	WarnUnresolvedParent
	// face refers outside of its pool and was dropped
	WarnInvalidFace
	WarnInvalidSmoothGroup
	// positive bone weight without a bone name to pair with
	WarnOrphanWeight
	WarnDuplicateName
)

var warningKindNames = [...]string{
	WarnStructuralAnomaly:  "structural_anomaly",
	WarnUnresolvedParent:   "unresolved_parent",
	WarnInvalidFace:        "invalid_face",
	WarnInvalidSmoothGroup: "invalid_smooth_group",
	WarnOrphanWeight:       "orphan_weight",
	WarnDuplicateName:      "duplicate_name",
}

func (k WarningKind) String() string {
	if int(k) >= 0 && int(k) < len(warningKindNames) {
		return warningKindNames[k]
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *WarningKind) UnmarshalText(text []byte) error {
	for i, name := range warningKindNames {
		if name == string(text) {
			*k = WarningKind(i)
			return nil
		}
	}
	return errors.Errorf("unknown warning kind %q", text)
}

type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Mesh    int         `json:"mesh" yaml:"mesh"` // -1 when not tied to a mesh
	Offset  int         `json:"offset" yaml:"offset"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Mesh < 0 {
		return fmt.Sprintf("[%v] 0x%.8x: %s", w.Kind, w.Offset, w.Message)
	}
	return fmt.Sprintf("[%v] mesh %d 0x%.8x: %s", w.Kind, w.Mesh, w.Offset, w.Message)
}
