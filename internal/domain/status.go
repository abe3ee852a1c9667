package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Status is the sales status of an aircraft listing.
type Status string

// The closed set of listing statuses.
const (
	StatusForSale     Status = "for-sale"
	StatusSold        Status = "sold"
	StatusWanted      Status = "wanted"
	StatusComingSoon  Status = "coming-soon"
	StatusSalePending Status = "sale-pending"
	StatusOffMarket   Status = "off-market"
	StatusAcquired    Status = "acquired"
)

var statuses = []Status{
	StatusForSale,
	StatusSold,
	StatusWanted,
	StatusComingSoon,
	StatusSalePending,
	StatusOffMarket,
	StatusAcquired,
}

// Statuses returns every status in display order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range statuses {
		if st == known {
			return st, true
		}
	}
	return st, false
}

// Tone is the presentational colour family of a status badge.
type Tone string

// Badge tones.
const (
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	TonePurple  Tone = "purple"
	ToneMuted   Tone = "muted"
	TonePrimary Tone = "primary"
	ToneNeutral Tone = "neutral"
)

// StatusDescriptor is what a status badge displays.
type StatusDescriptor struct {
	Value string
	Label string
	Tone  Tone
}

// DescribeStatus maps any status value, known or not, to a badge descriptor.
// Unknown values keep their derived label and get ToneNeutral.
func DescribeStatus(s Status) StatusDescriptor {
	slug := strings.ToLower(strings.TrimSpace(string(s)))
	return StatusDescriptor{
		Value: slug,
		Label: StatusLabel(slug),
		Tone:  statusTone(Status(slug)),
	}
}

func statusTone(s Status) Tone {
	switch s {
	case StatusForSale:
		return ToneSuccess
	case StatusSold:
		return ToneError
	case StatusWanted:
		return ToneInfo
	case StatusComingSoon:
		return ToneWarning
	case StatusSalePending:
		return TonePurple
	case StatusOffMarket:
		return ToneMuted
	case StatusAcquired:
		return TonePrimary
	default:
		return ToneNeutral
	}
}

// StatusLabel turns "for-sale" into "For Sale". Empty input yields Placeholder.
func StatusLabel(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Placeholder
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
