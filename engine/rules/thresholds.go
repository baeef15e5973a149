package rules

import "github.com/OutrankHQ/siteaudit/engine/domain"

// Threshold grades a coverage ratio: at or above OK passes, at or above
// OFI needs improvement, anything lower is a priority problem.
type Threshold struct {
	OK  float64
	OFI float64
}

func (t Threshold) Grade(r float64) domain.Status {
	switch {
	case r >= t.OK:
		return domain.StatusOK
	case r >= t.OFI:
		return domain.StatusOFI
	default:
		return domain.StatusPriorityOFI
	}
}

// CountThreshold grades a more-is-better count.
type CountThreshold struct {
	OK  int
	OFI int
}

func (t CountThreshold) Grade(n int) domain.Status {
	switch {
	case n >= t.OK:
		return domain.StatusOK
	case n >= t.OFI:
		return domain.StatusOFI
	default:
		return domain.StatusPriorityOFI
	}
}

// Span grades a character length against inclusive bounds: inside is OK,
// outside OFI, missing entirely Priority OFI.
type Span struct {
	Min, Max int
}

func (s Span) Grade(n int) domain.Status {
	switch {
	case n == 0:
		return domain.StatusPriorityOFI
	case n >= s.Min && n <= s.Max:
		return domain.StatusOK
	default:
		return domain.StatusOFI
	}
}

// Tunables, one per check. Adjust here, never inline in a Run func.
var (
	mobileCoverage  = Threshold{OK: 0.9, OFI: 0.7}
	altTextCoverage = Threshold{OK: 0.8, OFI: 0.5}
	headingCoverage = Threshold{OK: 0.8, OFI: 0.5}
	cleanURLShare   = Threshold{OK: 0.9, OFI: 0.7}
	canonicalShare  = Threshold{OK: 0.8, OFI: 0.5}
	readableShare   = Threshold{OK: 0.6, OFI: 0.3}
	socialTagShare  = Threshold{OK: 0.5, OFI: 0.2}
	h1Coverage      = Threshold{OK: 0.8, OFI: 0.5}

	serviceTitleShare   = Threshold{OK: 0.8, OFI: 0.5}
	serviceDepthShare   = Threshold{OK: 0.7, OFI: 0.4}
	serviceSchemaShare  = Threshold{OK: 0.5, OFI: 0.25}
	serviceContactShare = Threshold{OK: 0.8, OFI: 0.4}
	serviceImageShare   = Threshold{OK: 0.8, OFI: 0.5}

	napCoverage         = Threshold{OK: 0.8, OFI: 0.5}
	locationTitleShare  = Threshold{OK: 0.8, OFI: 0.5}
	locationSchemaShare = Threshold{OK: 0.5, OFI: 0.25}
	locationDepthShare  = Threshold{OK: 0.7, OFI: 0.4}

	areaTitleShare = Threshold{OK: 0.8, OFI: 0.5}
	areaDepthShare = Threshold{OK: 0.7, OFI: 0.4}
	areaLinkShare  = Threshold{OK: 0.7, OFI: 0.3}

	titleSpan    = Span{Min: 30, Max: 65}
	metaDescSpan = Span{Min: 70, Max: 160}

	homepageWords = CountThreshold{OK: 300, OFI: 120}
	siteDepth     = CountThreshold{OK: 10, OFI: 4}
	linkDensity   = CountThreshold{OK: 5, OFI: 2}
	serviceCount  = CountThreshold{OK: 3, OFI: 1}
	locationCount = CountThreshold{OK: 3, OFI: 2}
	areaCount     = CountThreshold{OK: 3, OFI: 2}
	speedScore    = CountThreshold{OK: 90, OFI: 50}
)

// Word-count floors for bucket pages and readability/keyword cutoffs.
const (
	servicePageWordFloor  = 200
	locationPageWordFloor = 150
	areaPageWordFloor     = 150

	readabilityFloor   = 60.0
	keywordFocusMin    = 3
	brokenLinkOFILimit = 3
)
