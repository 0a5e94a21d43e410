// Package service implements §6's service surface: the thin-HTTP-layer-
// facing API that validates ownership and quota, creates a C4 Job, and
// returns its id — grounded on the teacher's internal/usecase package's
// "validate → create job → enqueue → log" shape (internal/usecase/evaluate.go),
// generalized from the teacher's single evaluate flow into one service per
// domain pipeline.
package service

import (
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// checkOwnership loads cv and confirms it belongs to userID, masking a
// cross-user probe as NOT_FOUND the same way a nonexistent id would be
// (§7's ownership-check convention, named directly by domain.ErrForbidden's
// doc comment).
func checkOwnership(cv domain.CV, userID string) error {
	if cv.UserID != userID {
		return domain.ErrForbidden("cv")
	}
	return nil
}

// checkActive resets the user's monthly counters if due, then verifies the
// user isn't locked out or inactive (§3: "A user with status ≠ active or
// with lockoutUntil > now cannot start new jobs") — the check every start
// operation needs regardless of whether it consumes a metered quota.
func checkActive(users domain.UserRepository, ctx domain.Context, userID string) (domain.User, error) {
	if err := users.ResetUsageIfDue(ctx, userID, time.Now()); err != nil {
		return domain.User{}, err
	}
	u, err := users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !u.CanStartJob(time.Now()) {
		return domain.User{}, domain.NewError(domain.CodeUserLocked, "user is locked or inactive", 403)
	}
	return u, nil
}

// checkQuota calls checkActive, then verifies field (one of "generations",
// "enhancements", "analyses") hasn't reached its configured monthly limit.
// The quota itself isn't incremented here — it's incremented atomically by
// the processor once the job actually produces the metered artifact.
func checkQuota(users domain.UserRepository, ctx domain.Context, userID, field string) (domain.User, error) {
	u, err := checkActive(users, ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	var used, limit int
	switch field {
	case "generations":
		used, limit = u.Usage.Generations, u.Limits.MonthlyGenerations
	case "enhancements":
		used, limit = u.Usage.Enhancements, u.Limits.MonthlyEnhancements
	case "analyses":
		used, limit = u.Usage.Analyses, u.Limits.MonthlyAnalyses
	}
	if limit > 0 && used >= limit {
		return domain.User{}, domain.NewError(domain.CodeUsageExceeded, "monthly "+field+" limit reached", 429)
	}
	return u, nil
}
