package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/replydesk/internal/auth"
	"github.com/isdelr/replydesk/internal/database"
	"github.com/isdelr/replydesk/internal/models"
	"github.com/isdelr/replydesk/internal/reply"
	"github.com/isdelr/replydesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db       *sql.DB
	store    *store.SQLite
	tokens   *auth.TokenService
	users    *UserService
	business *BusinessService
	chat     *ChatService
	notified *recordingNotifier
}

type recordingNotifier struct {
	mu    sync.Mutex
	turns []models.ChatTurn
}

func (n *recordingNotifier) NotifyUser(userID string, turn models.ChatTurn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.turns = append(n.turns, turn)
}

type cannedGenerator struct {
	business string
	message  string
}

func (g *cannedGenerator) Generate(_ context.Context, businessText, userMessage string) string {
	g.business = businessText
	g.message = userMessage
	return "canned reply"
}

// failingExchangeStore refuses to record chat exchanges.
type failingExchangeStore struct {
	*store.SQLite
}

func (failingExchangeStore) RecordExchange(context.Context, ...models.ChatTurn) error {
	return errors.New("disk full")
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "replydesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	st := store.NewSQLite(db)
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	gen, err := reply.New(reply.Config{Mode: reply.ModeTemplate})
	require.NoError(t, err)
	notifier := &recordingNotifier{}

	return &fixture{
		db:       db,
		store:    st,
		tokens:   tokens,
		users:    NewUserService(st, auth.NewPasswordHasher(bcrypt.MinCost), tokens),
		business: NewBusinessService(st),
		chat:     NewChatService(st, gen, notifier),
		notified: notifier,
	}
}

func countUsers(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	return n
}

func TestSignupLoginValidateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, token, err := f.users.Signup(ctx, "Ada", "Ada@Example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	subject, err := f.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	loggedIn, loginToken, err := f.users.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	subject, err = f.tokens.Validate(loginToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	me, err := f.users.GetUserByID(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
	assert.Empty(t, me.PasswordHash)
}

func TestSignup_DuplicateEmailLeavesOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw-one")
	require.NoError(t, err)

	_, token, err := f.users.Signup(ctx, "Imposter", "ADA@example.com ", "pw-two")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Empty(t, token)
	assert.Equal(t, 1, countUsers(t, f.db))

	// The first password still works; the second one never did.
	_, _, err = f.users.Login(ctx, "ada@example.com", "pw-one")
	assert.NoError(t, err)
	_, _, err = f.users.Login(ctx, "ada@example.com", "pw-two")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignup_RequiresFields(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ name, email, password string }{
		{"", "a@b.c", "pw"},
		{"A", "  ", "pw"},
		{"A", "a@b.c", ""},
	} {
		_, _, err := f.users.Signup(context.Background(), tc.name, tc.email, tc.password)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, countUsers(t, f.db))
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, token, err := f.users.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)

	_, token, err = f.users.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestBusiness_TrainReplacesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = f.business.Get(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.business.Train(ctx, user.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	first, err := f.business.Train(ctx, user.ID, "We sell bicycles.")
	require.NoError(t, err)
	assert.Equal(t, "We sell bicycles.", first.BusinessText)

	second, err := f.business.Train(ctx, user.ID, "We repair bicycles.")
	require.NoError(t, err)
	assert.Equal(t, "We repair bicycles.", second.BusinessText)

	got, err := f.business.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "We repair bicycles.", got.BusinessText)
}

func TestChat_RecordsBothTurns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = f.business.Train(ctx, user.ID, "We sell bicycles.")
	require.NoError(t, err)

	turn, err := f.chat.Reply(ctx, user.ID, "Do you have kids' bikes?", "")
	require.NoError(t, err)
	assert.True(t, turn.IsFromAssistant)
	assert.Contains(t, turn.Reply, "We sell bicycles.")
	assert.Contains(t, turn.Reply, "Do you have kids' bikes?")

	history, err := f.chat.History(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsFromAssistant)
	assert.False(t, history[1].IsFromAssistant)
	assert.Equal(t, "Do you have kids' bikes?", history[1].Message)
	assert.Empty(t, history[1].Reply)

	f.notified.mu.Lock()
	defer f.notified.mu.Unlock()
	assert.Len(t, f.notified.turns, 2)
}

func TestChat_WithoutProfileStillReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	turn, err := f.chat.Reply(ctx, user.ID, "Are you open?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.Reply)
	assert.NotContains(t, turn.Reply, "Based on the business info")
}

func TestChat_ExtraContextIsAppended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := &cannedGenerator{}
	chat := NewChatService(f.store, gen, nil)

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = f.business.Train(ctx, user.ID, "We sell bicycles.")
	require.NoError(t, err)

	turn, err := chat.Reply(ctx, user.ID, "Open Sunday?", "Closed on holidays.")
	require.NoError(t, err)
	assert.Equal(t, "canned reply", turn.Reply)
	assert.Equal(t, "We sell bicycles.\n\nClosed on holidays.", gen.business)
	assert.Equal(t, "Open Sunday?", gen.message)

	stored, err := f.business.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "We sell bicycles.", stored.BusinessText)
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.chat.Reply(context.Background(), "u1", "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChat_HistoryLimitClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chat := NewChatService(f.store, &cannedGenerator{}, nil)

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := chat.Reply(ctx, user.ID, "hi", "")
		require.NoError(t, err)
	}

	history, err := chat.History(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = chat.History(ctx, user.ID, MaxHistoryLimit+1000)
	require.NoError(t, err)
	assert.Len(t, history, 6)
}

func TestChat_RecordFailureStoresAndNotifiesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	chat := NewChatService(failingExchangeStore{f.store}, &cannedGenerator{}, notifier)

	_, err = chat.Reply(ctx, user.ID, "hi", "")
	require.Error(t, err)

	history, err := f.chat.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, notifier.turns)
}

func TestBusiness_TrainStoresTextVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _, err := f.users.Signup(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	text := "  We sell bicycles.\n\n  Open daily.\n"
	trained, err := f.business.Train(ctx, user.ID, text)
	require.NoError(t, err)
	assert.Equal(t, text, trained.BusinessText)

	gen := &cannedGenerator{}
	_, err = NewChatService(f.store, gen, nil).Reply(ctx, user.ID, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, text, gen.business)
}
