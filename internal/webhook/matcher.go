package webhook

import "github.com/cvenhancer/core/internal/domain"

// Matches implements §4.C6's subscription-match rule: w must be active, its
// events[] must contain evt.Type, and every configured filter must pass
// (intersection semantics — an unset filter always passes).
func Matches(w domain.Webhook, evt domain.DomainEvent) bool {
	if w.Status != domain.WebhookActive {
		return false
	}
	if !containsEvent(w.Events, evt.Type) {
		return false
	}
	return matchesFilters(w.Filters, evt)
}

func containsEvent(events []string, eventType string) bool {
	for _, e := range events {
		if e == eventType {
			return true
		}
	}
	return false
}

func matchesFilters(f domain.WebhookFilters, evt domain.DomainEvent) bool {
	if len(f.JobTypes) > 0 && !containsEvent(f.JobTypes, evt.JobType) {
		return false
	}
	if evt.Score != nil {
		if f.MinScore != nil && *evt.Score < *f.MinScore {
			return false
		}
		if f.MaxScore != nil && *evt.Score > *f.MaxScore {
			return false
		}
	}
	if len(f.CVIDs) > 0 && evt.CVID != "" && !containsEvent(f.CVIDs, evt.CVID) {
		return false
	}
	return true
}
