package app

import (
	"context"
)

type DaemonService interface {
	CoreAPI
	StartChainSession(ctx context.Context) error
	StopChainSession()
	SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func())
}
