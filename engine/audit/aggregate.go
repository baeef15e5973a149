package audit

import (
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// Summarize folds every category's findings into status tallies. Total
// always equals the sum of the four counts.
func Summarize(categories []domain.AuditCategory) domain.AuditSummary {
	return fn.Reduce(categories, domain.AuditSummary{}, func(acc domain.AuditSummary, cat domain.AuditCategory) domain.AuditSummary {
		for _, item := range cat.Items {
			switch item.Status {
			case domain.StatusPriorityOFI:
				acc.PriorityOFICount++
			case domain.StatusOFI:
				acc.OFICount++
			case domain.StatusOK:
				acc.OKCount++
			default:
				acc.NACount++
			}
			acc.Total++
		}
		return acc
	})
}
