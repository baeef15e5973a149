package rules

import (
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

var contactTitleTerms = []string{"contact", "get in touch", "reach us"}

// ContactPage grades the page a visitor would use to hire the business.
// Every check past the first is inapplicable when no contact page was
// identified during the crawl.
var ContactPage = []Check{
	{
		Name:        "Has contact page?",
		Description: "Crawl identified a dedicated contact page.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			if c := f.Structure.ContactPage; c != nil {
				return grade(domain.StatusOK, "contact page at %s", c.URL)
			}
			return grade(domain.StatusPriorityOFI, "no contact page identified")
		},
	},
	{
		Name:        "Contact page has form?",
		Description: "Visitors can submit an inquiry without leaving the page.",
		Importance:  domain.ImportanceMedium,
		Run: withContact(func(c domain.PageCrawlResult) fn.Result[Outcome] {
			if c.HasContactForm {
				return grade(domain.StatusOK, "inquiry form present")
			}
			return grade(domain.StatusOFI, "no form on contact page")
		}),
	},
	{
		Name:        "Contact page lists phone number?",
		Description: "A phone number is visible or tappable.",
		Importance:  domain.ImportanceHigh,
		Run: withContact(func(c domain.PageCrawlResult) fn.Result[Outcome] {
			if c.HasPhoneNumber {
				return grade(domain.StatusOK, "phone number present")
			}
			return grade(domain.StatusPriorityOFI, "no phone number on contact page")
		}),
	},
	{
		Name:        "Contact page lists address?",
		Description: "A street address is visible.",
		Importance:  domain.ImportanceMedium,
		Run: withContact(func(c domain.PageCrawlResult) fn.Result[Outcome] {
			if c.HasAddress {
				return grade(domain.StatusOK, "street address present")
			}
			return grade(domain.StatusOFI, "no street address on contact page")
		}),
	},
	{
		Name:        "Contact page has LocalBusiness schema?",
		Description: "Structured data marks the business entity.",
		Importance:  domain.ImportanceLow,
		Run: withContact(func(c domain.PageCrawlResult) fn.Result[Outcome] {
			if hasSchemaType(c, "LocalBusiness") {
				return grade(domain.StatusOK, "LocalBusiness schema present")
			}
			if c.HasSchema {
				return grade(domain.StatusOFI, "schema present but no LocalBusiness type: %s", strings.Join(c.SchemaTypes, ", "))
			}
			return grade(domain.StatusOFI, "no structured data on contact page")
		}),
	},
	{
		Name:        "Contact page title identifies it?",
		Description: "Page title tells visitors what the page is for.",
		Importance:  domain.ImportanceLow,
		Run: withContact(func(c domain.PageCrawlResult) fn.Result[Outcome] {
			if containsAny(strings.ToLower(c.Title), contactTitleTerms) {
				return grade(domain.StatusOK, "title %q names the page purpose", c.Title)
			}
			return grade(domain.StatusOFI, "title %q does not mention contact", c.Title)
		}),
	},
}

// withContact lifts a contact-scoped check into a Facts check, skipping
// when the crawl found no contact page.
func withContact(run func(domain.PageCrawlResult) fn.Result[Outcome]) func(Facts) fn.Result[Outcome] {
	return func(f Facts) fn.Result[Outcome] {
		c := f.Structure.ContactPage
		if c == nil {
			return skipf("no contact page identified")
		}
		return run(*c)
	}
}
