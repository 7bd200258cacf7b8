// Package testutil provides an in-memory fake of the tutoring-center
// backend so workflow tests exercise real HTTP round trips.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// Password accepted for every seeded user
const Password = "secret"

// Call is one request the backend received
type Call struct {
	Method         string
	Path           string
	Authorization  string
	IdempotencyKey string
}

type failure struct {
	status  int
	message string
}

type account struct {
	user  api.User
	login string
}

// Backend is the fake server. All methods are safe for concurrent use.
type Backend struct {
	t      *testing.T
	server *httptest.Server
	faker  *gofakeit.Faker

	mu           sync.Mutex
	seq          int
	tokens       map[string]api.User
	accounts     map[api.UserType][]account
	wallets      map[string]*api.Wallet
	transactions []api.Transaction
	earnings     []api.StaffEarning
	payouts      []api.SalaryPayout
	teachers     []api.Teacher
	students     []api.Student
	idempotency  map[string]api.Transaction
	subscribed   map[string]api.SubscribeRequest
	failures     map[string]failure
	calls        []Call
}

// NewBackend starts a fake backend that is closed when the test ends
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		t:           t,
		faker:       gofakeit.New(42),
		tokens:      make(map[string]api.User),
		accounts:    make(map[api.UserType][]account),
		wallets:     make(map[string]*api.Wallet),
		idempotency: make(map[string]api.Transaction),
		subscribed:  make(map[string]api.SubscribeRequest),
		failures:    make(map[string]failure),
	}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the API base URL
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// Gateway returns a gateway client for the backend using tokens
func (b *Backend) Gateway(tokens apiclient.TokenSource, opts ...apiclient.Option) *apiclient.Client {
	b.t.Helper()
	gw, err := apiclient.New(apiclient.Config{BaseURL: b.URL(), Timeout: 5 * time.Second}, tokens, opts...)
	require.NoError(b.t, err)
	return gw
}

// IssueToken returns a valid bearer token for user
func (b *Backend) IssueToken(user api.User) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(user)
}

// RevokeAll invalidates every token, so the next call answers 401
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]api.User)
}

// FailNext makes the next request matching method and path (without the
// /api prefix) answer status with message.
func (b *Backend) FailNext(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Calls returns every request received so far
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount counts requests with method whose path starts with prefix
func (b *Backend) CallCount(method, prefix string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// Subscription returns the last notification choice a device sent for a student
func (b *Backend) Subscription(studentID, deviceID string) (api.SubscribeRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.subscribed[studentID+"/"+deviceID]
	return req, ok
}

// ResetCalls forgets the recorded requests
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%06d", prefix, b.seq)
}

func (b *Backend) issueLocked(user api.User) string {
	token := "tok-" + b.faker.UUID()
	b.tokens[token] = user
	return token
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(b.record, b.injectFailure)

	root := r.Group("/api")
	for _, typ := range []api.UserType{api.UserTeacher, api.UserParent, api.UserStudent} {
		root.POST("/auth/"+string(typ)+"/login", b.login(typ))
	}

	authed := root.Group("", b.requireAuth)
	authed.GET("/auth/me", b.me)
	authed.POST("/auth/view-as-student/:id", b.viewAsStudent)

	authed.Any("/wallet/*rest", b.walletRoute)

	earnings := authed.Group("/staff-earnings")
	earnings.GET("", b.listEarnings)
	earnings.GET("/pending", b.pendingEarnings)
	earnings.GET("/account/:staffId", b.earningAccount)
	earnings.PATCH("/:id/approve", b.approveEarning)
	earnings.POST("/bonus", b.createEarning(api.EarningBonus))
	earnings.POST("/penalty", b.createEarning(api.EarningPenalty))
	earnings.POST("/adjustment", b.createEarning(api.EarningAdjustment))

	payouts := authed.Group("/salary-payouts")
	payouts.GET("", b.listPayouts)
	payouts.POST("", b.createPayout)
	payouts.PATCH("/:id/complete", b.completePayout)
	payouts.PATCH("/:id/cancel", b.cancelPayout)

	authed.POST("/notifications/subscribe", b.subscribe)

	authed.GET("/teachers", b.listTeachers)
	authed.GET("/students", b.listStudents)
	authed.GET("/branches", func(c *gin.Context) {
		ok(c, http.StatusOK, []api.Branch{{ID: "b1", Name: "Chilonzor", IsActive: true}, {ID: "b2", Name: "Yunusobod", IsActive: true}})
	})

	return r
}

func (b *Backend) record(c *gin.Context) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:         c.Request.Method,
		Path:           strings.TrimPrefix(c.Request.URL.Path, "/api"),
		Authorization:  c.GetHeader("Authorization"),
		IdempotencyKey: c.GetHeader(api.IdempotencyHeader),
	})
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) injectFailure(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api")
	b.mu.Lock()
	f, found := b.failures[key]
	delete(b.failures, key)
	b.mu.Unlock()
	if found {
		fail(c, f.status, f.message)
		return
	}
	c.Next()
}

func (b *Backend) requireAuth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.mu.Lock()
	user, found := b.tokens[token]
	b.mu.Unlock()
	if !found {
		fail(c, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}
	c.Set("user", user)
	c.Next()
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": gin.H{"code": http.StatusText(status), "message": message}})
}

// API returns a wrapper client signed in as user, plus its gateway
func (b *Backend) API(user api.User, opts ...apiclient.Option) (*api.Client, *apiclient.Client) {
	token := b.IssueToken(user)
	gw := b.Gateway(apiclient.TokenFunc(func() string { return token }), opts...)
	return api.NewClient(gw), gw
}
