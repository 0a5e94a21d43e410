package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cvenhancer/core/internal/domain"
)

func TestMatches(t *testing.T) {
	score := 85.0
	low, high := 80.0, 90.0

	cases := []struct {
		name string
		w    domain.Webhook
		evt  domain.DomainEvent
		want bool
	}{
		{
			name: "suspended webhook never matches",
			w:    domain.Webhook{Status: domain.WebhookSuspended, Events: []string{"ats.completed"}},
			evt:  domain.DomainEvent{Type: "ats.completed"},
			want: false,
		},
		{
			name: "event not subscribed",
			w:    domain.Webhook{Status: domain.WebhookActive, Events: []string{"job.completed"}},
			evt:  domain.DomainEvent{Type: "ats.completed"},
			want: false,
		},
		{
			name: "score within range passes",
			w: domain.Webhook{Status: domain.WebhookActive, Events: []string{"ats.completed"},
				Filters: domain.WebhookFilters{MinScore: &low, MaxScore: &high}},
			evt:  domain.DomainEvent{Type: "ats.completed", Score: &score},
			want: true,
		},
		{
			name: "score below range fails",
			w: domain.Webhook{Status: domain.WebhookActive, Events: []string{"ats.completed"},
				Filters: domain.WebhookFilters{MinScore: &high}},
			evt:  domain.DomainEvent{Type: "ats.completed", Score: &score},
			want: false,
		},
		{
			name: "cv filter excludes unlisted cv",
			w: domain.Webhook{Status: domain.WebhookActive, Events: []string{"job.completed"},
				Filters: domain.WebhookFilters{CVIDs: []string{"cv-other"}}},
			evt:  domain.DomainEvent{Type: "job.completed", CVID: "cv-1"},
			want: false,
		},
		{
			name: "unset filters always pass",
			w:    domain.Webhook{Status: domain.WebhookActive, Events: []string{"job.completed"}},
			evt:  domain.DomainEvent{Type: "job.completed", CVID: "cv-1"},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.w, tc.evt))
		})
	}
}
