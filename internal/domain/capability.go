package domain

import "fmt"

type CroppingMode string

const (
	CroppingSquare            CroppingMode = "square"
	CroppingVertical          CroppingMode = "vertical"
	CroppingSquareAndVertical CroppingMode = "square_and_vertical"
)

type ColorSupport string

const (
	ColorSupportNone    ColorSupport = "none"
	ColorSupportLimited ColorSupport = "limited"
	ColorSupportFull    ColorSupport = "full"
)

// PlatformCapability is the immutable constraint descriptor for one external
// platform: what it can receive and under which limits.
type PlatformCapability struct {
	PlatformID           PlatformID
	DisplayLabel         string
	BioCharLimit         int
	DisplayNameCharLimit int
	AllowedFields        map[FieldName]struct{}
	CroppingMode         CroppingMode
	ColorSupport         ColorSupport
}

func (c PlatformCapability) Allows(field FieldName) bool {
	_, ok := c.AllowedFields[field]
	return ok
}

func allFieldsExcept(excluded ...FieldName) map[FieldName]struct{} {
	out := make(map[FieldName]struct{})
	for _, field := range SyncableFields() {
		out[field] = struct{}{}
	}
	for _, field := range excluded {
		delete(out, field)
	}
	return out
}

// platformOrder is the display order creators see. It is part of the registry
// contract and must stay stable across versions.
var platformOrder = []PlatformID{
	PlatformInstagram,
	PlatformTikTok,
	PlatformPinterest,
	PlatformX,
	PlatformYouTube,
}

var capabilities = map[PlatformID]PlatformCapability{
	PlatformInstagram: {
		PlatformID:           PlatformInstagram,
		DisplayLabel:         "Instagram",
		BioCharLimit:         150,
		DisplayNameCharLimit: 30,
		AllowedFields:        allFieldsExcept(),
		CroppingMode:         CroppingSquare,
		ColorSupport:         ColorSupportLimited,
	},
	PlatformTikTok: {
		PlatformID:           PlatformTikTok,
		DisplayLabel:         "TikTok",
		BioCharLimit:         80,
		DisplayNameCharLimit: 30,
		AllowedFields:        allFieldsExcept(FieldLinkInBio),
		CroppingMode:         CroppingSquareAndVertical,
		ColorSupport:         ColorSupportNone,
	},
	PlatformPinterest: {
		PlatformID:           PlatformPinterest,
		DisplayLabel:         "Pinterest",
		BioCharLimit:         160,
		DisplayNameCharLimit: 50,
		AllowedFields:        allFieldsExcept(),
		CroppingMode:         CroppingSquareAndVertical,
		ColorSupport:         ColorSupportNone,
	},
	PlatformX: {
		PlatformID:           PlatformX,
		DisplayLabel:         "X (Twitter)",
		BioCharLimit:         160,
		DisplayNameCharLimit: 50,
		AllowedFields:        allFieldsExcept(),
		CroppingMode:         CroppingSquare,
		ColorSupport:         ColorSupportLimited,
	},
	PlatformYouTube: {
		PlatformID:           PlatformYouTube,
		DisplayLabel:         "YouTube",
		BioCharLimit:         180,
		DisplayNameCharLimit: 30,
		AllowedFields:        allFieldsExcept(),
		CroppingMode:         CroppingSquare,
		ColorSupport:         ColorSupportLimited,
	},
}

// Capability resolves a platform in the closed, versioned registry. The set is
// static configuration, never mutated at runtime.
func Capability(id PlatformID) (PlatformCapability, error) {
	capability, ok := capabilities[id]
	if !ok {
		return PlatformCapability{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, id)
	}
	return capability, nil
}

// SupportedPlatforms returns platform ids in stable display order.
func SupportedPlatforms() []PlatformID {
	out := make([]PlatformID, len(platformOrder))
	copy(out, platformOrder)
	return out
}
