package usecase

import (
	"time"

	"social-publisher/domain/repository"
)

func NewStatusTrackerWithClock(results repository.IPublishResult, now func() time.Time, newID func() string, notifiers ...repository.IPublishNotifier) IStatusTracker {
	return &StatusTracker{results: results, notifiers: notifiers, now: now, newID: newID}
}

func SetConnectionClock(u IConnectionUsecase, now func() time.Time, newVerifier func() string) {
	c := u.(*ConnectionUsecase)
	c.now = now
	c.newVerifier = newVerifier
}

func (u *PublishUsecase) SetClock(now func() time.Time) { u.now = now }
