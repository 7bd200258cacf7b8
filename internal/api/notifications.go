package api

import "context"

// NotificationsAPI wraps the parent notification opt-in endpoint
type NotificationsAPI struct {
	gw Gateway
}

// NewNotificationsAPI creates a NotificationsAPI
func NewNotificationsAPI(gw Gateway) *NotificationsAPI {
	return &NotificationsAPI{gw: gw}
}

// SubscribeRequest registers a device for a student's notifications
type SubscribeRequest struct {
	StudentID string `json:"studentId"`
	DeviceID  string `json:"deviceId"`
	Enabled   bool   `json:"enabled"`
}

// Subscribe records the device's notification choice for a student
func (a *NotificationsAPI) Subscribe(ctx context.Context, req SubscribeRequest) error {
	_, err := a.gw.Do(ctx, post("/notifications/subscribe", req))
	return err
}
