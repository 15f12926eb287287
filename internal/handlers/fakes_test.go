package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/chamadopro/backend/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hand-rolled fakes over the repository interfaces. Behavior is driven by the
// exported fields so each subtest configures just what it needs.

type fakeBudgetRepo struct {
	budgets      map[uint]*models.Budget
	hasLive      bool
	created      []*models.Budget
	acceptResult *repositories.AcceptResult
	acceptErr    error
	statusErr    error
	lastStatus   models.BudgetStatus
}

func (f *fakeBudgetRepo) CreateBudget(budget *models.Budget) error {
	budget.ID = uint(len(f.created) + 1)
	budget.Status = models.BudgetPending
	f.created = append(f.created, budget)
	return nil
}

func (f *fakeBudgetRepo) GetBudgetByID(id uint) (*models.Budget, error) {
	b, ok := f.budgets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return b, nil
}

func (f *fakeBudgetRepo) ListByPost(postID uint) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range f.budgets {
		if b.PostID == postID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBudgetRepo) ListByProvider(providerID uint, page, limit int) ([]models.Budget, int64, error) {
	return nil, 0, nil
}

func (f *fakeBudgetRepo) ListByClient(clientID uint, page, limit int) ([]models.Budget, int64, error) {
	return nil, 0, nil
}

func (f *fakeBudgetRepo) HasLiveBudget(postID, providerID uint) (bool, error) {
	return f.hasLive, nil
}

func (f *fakeBudgetRepo) Counter(budgetID, authorID uint, req models.CounterBudgetRequest, ttl time.Duration) (*models.Negotiation, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.Negotiation{BudgetID: budgetID, AuthorID: authorID, Value: req.Value, TermDays: req.TermDays, Message: req.Message}, nil
}

func (f *fakeBudgetRepo) Accept(budgetID, clientID uint, feeRate float64, externalRef string) (*repositories.AcceptResult, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return f.acceptResult, nil
}

func (f *fakeBudgetRepo) UpdateStatus(budgetID, actorID uint, to models.BudgetStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.lastStatus = to
	return nil
}

func (f *fakeBudgetRepo) ExpireStale(now time.Time) (int64, error) { return 0, nil }

type fakePostRepo struct {
	posts map[uint]*models.Post
}

func (f *fakePostRepo) CreatePost(post *models.Post) error { return nil }

func (f *fakePostRepo) GetPostByID(id uint) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (f *fakePostRepo) ListPosts(filter models.PostFilter, page, limit int) ([]models.Post, int64, error) {
	return nil, 0, nil
}

func (f *fakePostRepo) UpdatePost(post *models.Post) error { return nil }

func (f *fakePostRepo) UpdateStatus(postID uint, from, to models.PostStatus) error { return nil }

type fakeContractRepo struct {
	contracts      map[uint]*models.Contract
	finalizeResult *repositories.FinalizeResult
	finalizeErr    error
	cancelErr      error
	disputeErr     error
}

func (f *fakeContractRepo) GetContractByID(id uint) (*models.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func (f *fakeContractRepo) GetContractByBudgetID(budgetID uint) (*models.Contract, error) {
	for _, c := range f.contracts {
		if c.BudgetID == budgetID {
			return c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContractRepo) ListByParticipant(userID uint, page, limit int) ([]models.Contract, int64, error) {
	return nil, 0, nil
}

func (f *fakeContractRepo) ListAll(status models.ContractStatus, page, limit int) ([]models.Contract, int64, error) {
	return nil, 0, nil
}

func (f *fakeContractRepo) Finalize(contractID, initiatorID uint, req models.FinalizeContractRequest) (*repositories.FinalizeResult, error) {
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	return f.finalizeResult, nil
}

func (f *fakeContractRepo) Cancel(contractID, initiatorID uint) (*models.Contract, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return f.contracts[contractID], nil
}

func (f *fakeContractRepo) OpenDispute(contractID, initiatorID uint, reason string) (*models.Dispute, error) {
	if f.disputeErr != nil {
		return nil, f.disputeErr
	}
	return &models.Dispute{ID: 1, ContractID: contractID, InitiatorID: initiatorID, Reason: reason, Status: models.DisputeOpen}, nil
}

func (f *fakeContractRepo) ResolveDispute(disputeID, adminID uint, outcome, resolution string) (*models.Dispute, *models.Contract, error) {
	return nil, nil, repositories.ErrNotFound
}

func (f *fakeContractRepo) ListOpenDisputes() ([]models.Dispute, error) { return nil, nil }

func (f *fakeContractRepo) ListReviewsForUser(userID uint) ([]models.Review, error) { return nil, nil }

type fakeMessageRepo struct {
	messages []*models.Message
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	if message.Type == "" {
		message.Type = models.MessageText
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) GetThread(ctx context.Context, contractID uint, viewerID uint, includeBlocked bool) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ContractID != contractID {
			continue
		}
		if m.Blocked && !includeBlocked && m.SenderID != viewerID {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMessageRepo) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeMessageRepo) ListBlocked(ctx context.Context, limit int64) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.Blocked {
			out = append(out, *m)
		}
	}
	return out, nil
}

type pushedEvent struct {
	Channel string
	Event   realtime.Event
}

type fakePusher struct {
	events []pushedEvent
}

func (f *fakePusher) Broadcast(channel string, evt realtime.Event) {
	f.events = append(f.events, pushedEvent{Channel: channel, Event: evt})
}

type fakeNotificationRepo struct {
	created []*models.Notification
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(recipientID uint) (int64, error) { return 0, nil }

func (f *fakeNotificationRepo) MarkAsRead(notificationID, recipientID uint) error { return nil }

func (f *fakeNotificationRepo) MarkAllAsRead(recipientID uint) error { return nil }

func (f *fakeNotificationRepo) Delete(notificationID, recipientID uint) error { return nil }

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (f *fakeUserRepo) CreateUser(user *models.User) error { return nil }

func (f *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) UpdateUser(user *models.User) error { return nil }

func (f *fakeUserRepo) SetDeviceToken(userID uint, token string) error { return nil }

func (f *fakeUserRepo) ListUsers(page, limit int) ([]models.User, int64, error) { return nil, 0, nil }

// newTestEcho returns an Echo instance with the request validator wired, same
// as the server bootstrap does.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// newAuthedRequest builds an authenticated request context the way the JWT
// middleware leaves it.
func newAuthedRequest(e *echo.Echo, method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}
