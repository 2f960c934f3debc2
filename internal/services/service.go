package services

import (
	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/events"
)

type Service struct {
	Identity    *IdentityService
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Push        *PushService
	Motivation  *MotivationService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	transactionService := NewTransactionService(db)

	identityService, err := NewIdentityService(config)
	if err != nil {
		return Service{}, err
	}

	schedulerService := NewSchedulerService()
	pushService := NewPushService(config)
	motivationService := NewMotivationService(config)

	return Service{
		Identity:    identityService,
		Transaction: transactionService,
		Scheduler:   schedulerService,
		Push:        pushService,
		Motivation:  motivationService,
	}, nil
}
