// Package api wraps the backend resources. Every method issues exactly one
// call through the gateway client and returns typed data; envelope handling
// lives in apiclient.Decode so callers never unwrap responses themselves.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// Gateway is the part of apiclient.Client the wrappers need
type Gateway interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Params are query parameters; empty values are dropped by the gateway
type Params map[string]string

// With returns a copy of p with key set
func (p Params) With(key, value string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// Client bundles every resource wrapper
type Client struct {
	Wallet        *WalletAPI
	Earnings      *EarningsAPI
	Payouts       *PayoutsAPI
	Auth          *AuthAPI
	Notifications *NotificationsAPI
	Attendance    *AttendanceAPI

	Teachers  *Resource[Teacher]
	Students  *Resource[Student]
	Subjects  *Resource[Subject]
	Classes   *Resource[Class]
	Exams     *Resource[Exam]
	Feedback  *Resource[Feedback]
	Timetable *Resource[TimetableEntry]
	Scheduler *Resource[ScheduleSlot]
	Branches  *Resource[Branch]
	Settings  *Resource[Setting]
}

// NewClient binds every wrapper to gw
func NewClient(gw Gateway) *Client {
	return &Client{
		Wallet:        NewWalletAPI(gw),
		Earnings:      NewEarningsAPI(gw),
		Payouts:       NewPayoutsAPI(gw),
		Auth:          NewAuthAPI(gw),
		Notifications: NewNotificationsAPI(gw),
		Attendance:    NewAttendanceAPI(gw),

		Teachers:  NewResource[Teacher](gw, "/teachers"),
		Students:  NewResource[Student](gw, "/students"),
		Subjects:  NewResource[Subject](gw, "/subjects"),
		Classes:   NewResource[Class](gw, "/classes"),
		Exams:     NewResource[Exam](gw, "/exams"),
		Feedback:  NewResource[Feedback](gw, "/feedback"),
		Timetable: NewResource[TimetableEntry](gw, "/timetable"),
		Scheduler: NewResource[ScheduleSlot](gw, "/scheduler"),
		Branches:  NewResource[Branch](gw, "/branches"),
		Settings:  NewResource[Setting](gw, "/settings"),
	}
}

func call[T any](ctx context.Context, gw Gateway, req apiclient.Request) (T, error) {
	resp, err := gw.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return apiclient.DecodeData[T](resp)
}

func callResult[T any](ctx context.Context, gw Gateway, req apiclient.Request) (apiclient.Result[T], error) {
	resp, err := gw.Do(ctx, req)
	if err != nil {
		return apiclient.Result[T]{}, err
	}
	return apiclient.Decode[T](resp)
}

func get(path string, query Params) apiclient.Request {
	return apiclient.Request{Method: http.MethodGet, Path: path, Query: query}
}

func post(path string, body interface{}) apiclient.Request {
	return apiclient.Request{Method: http.MethodPost, Path: path, Body: body}
}

func patch(path string, body interface{}) apiclient.Request {
	return apiclient.Request{Method: http.MethodPatch, Path: path, Body: body}
}

// join builds a path from segments, escaping each one
func join(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(strings.Trim(s, "/")))
	}
	return b.String()
}

func setInt(p Params, key string, n int) {
	if n > 0 {
		p[key] = strconv.Itoa(n)
	}
}
