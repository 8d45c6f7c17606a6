package domain

import "fmt"

// Render derives the exact per-platform representation that a push sync would
// send. It is a pure function of its three inputs: same inputs, same preview.
//
// Fields are processed in the fixed alphabetical SyncableFields order so that
// warnings come out in a stable sequence. Truncation is a hard character cut
// with no ellipsis, preserving the shipped behavior pending product review of
// word-boundary truncation.
func Render(profile CanonicalProfile, capability PlatformCapability, syncFields map[FieldName]bool) SyncPreview {
	preview := SyncPreview{
		PlatformID:     capability.PlatformID,
		RenderedFields: make(map[FieldName]RenderedField, len(SyncableFields())),
	}
	for _, field := range SyncableFields() {
		if !syncFields[field] {
			preview.RenderedFields[field] = RenderedField{Omitted: true}
			continue
		}
		if !capability.Allows(field) {
			// The connection registry guards toggles against allowed fields
			// already; re-validate here so stale callers stay safe.
			preview.RenderedFields[field] = RenderedField{Omitted: true}
			preview.Warnings = append(preview.Warnings,
				fmt.Sprintf("%s is not supported on %s", field, capability.PlatformID))
			continue
		}

		value := profileFieldValue(profile, field)
		switch field {
		case FieldBio, FieldDisplayName:
			limit := capability.BioCharLimit
			if field == FieldDisplayName {
				limit = capability.DisplayNameCharLimit
			}
			if runes := []rune(value); limit > 0 && len(runes) > limit {
				preview.Warnings = append(preview.Warnings,
					fmt.Sprintf("%s truncated from %d to %d chars", field, len(runes), limit))
				value = string(runes[:limit])
			}
		case FieldBrandColorPrimary, FieldBrandColorSecondary:
			if capability.ColorSupport == ColorSupportNone {
				preview.RenderedFields[field] = RenderedField{Omitted: true}
				continue
			}
			if capability.ColorSupport == ColorSupportLimited {
				preview.Warnings = append(preview.Warnings,
					fmt.Sprintf("%s has limited support on %s", field, capability.PlatformID))
			}
		}
		preview.RenderedFields[field] = RenderedField{Value: value}
	}
	return preview
}

func profileFieldValue(profile CanonicalProfile, field FieldName) string {
	switch field {
	case FieldAvatarRef:
		return profile.AvatarRef
	case FieldBio:
		return profile.Bio
	case FieldBrandColorPrimary:
		return profile.BrandColorPrimary
	case FieldBrandColorSecondary:
		return profile.BrandColorSecondary
	case FieldCoverRef:
		return profile.CoverRef
	case FieldDisplayName:
		return profile.DisplayName
	case FieldLinkInBio:
		return profile.LinkInBio
	default:
		return ""
	}
}
