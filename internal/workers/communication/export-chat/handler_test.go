package exportchat

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"isp-assistant/internal/common/aws"
	"isp-assistant/internal/common/config"
	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/models"
)

// ==========================
// Mock Mailer
// ==========================

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string, attachments ...aws.Attachment) (string, error) {
	args := m.Called(ctx, to, subject, body, attachments)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

var fixedNow = time.Date(2024, 3, 5, 17, 42, 0, 0, time.UTC)

func createValidConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		Location:     time.UTC,
		EmailEnabled: true,
		Subject:      "Histórico de Chat - ISP Assistant",
	}
}

func newTestHandler(t *testing.T, mailer Mailer) (*Handler, *session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewStore(rdb, config.SessionConfig{KeyPrefix: "isp:session", TTL: 600, MaxMessages: 50})
	h, err := NewHandler(createValidConfig(), store, mailer, logger.NewZapAdapter(zaptest.NewLogger(t)))
	require.NoError(t, err)
	h.now = func() time.Time { return fixedNow }
	return h, store, mr
}

func seedSession(t *testing.T, store *session.Store) {
	t.Helper()
	ctx := context.Background()
	snapshot := &models.AccountSnapshot{Account: models.Account{ID: "001A", Name: "Fibra Sul Telecom"}}
	require.NoError(t, store.SaveSnapshot(ctx, "s-1", snapshot))
	require.NoError(t, store.AppendMessages(ctx, "s-1",
		models.ChatMessage{Role: models.RoleAssistant, Content: "Aqui está o prontuário do ISP:"},
		models.ChatMessage{Role: models.RoleUser, Content: "Qual o faturamento?"},
		models.ChatMessage{Role: models.RoleAssistant, Content: "R$ 9.550,00"},
	))
}

// ==========================
// Tests
// ==========================

func TestBuildTranscript(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: models.RoleUser, Content: "oi"},
		{Role: models.RoleAssistant, Content: "olá"},
	}

	want := "Histórico de Chat - ISP Assistant\n\n" +
		"Data: 05/03/2024 17:42\n" +
		"ISP: Fibra Sul Telecom\n\n" +
		"👤 Usuário:\noi\n\n" +
		"🤖 Assistente:\nolá\n\n"
	assert.Equal(t, want, BuildTranscript(messages, "Fibra Sul Telecom", fixedNow))

	noAccount := BuildTranscript(messages, "", fixedNow)
	assert.NotContains(t, noAccount, "ISP:")
	assert.Contains(t, noAccount, "Data: 05/03/2024 17:42\n👤 Usuário:")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "chat_historico_20240305_1742.txt", Filename(fixedNow))
}

func TestHandler_Execute_Download(t *testing.T) {
	h, store, _ := newTestHandler(t, nil)
	seedSession(t, store)

	out, err := h.Execute(context.Background(), &Input{SessionID: "s-1"})
	require.NoError(t, err)

	assert.True(t, out.Exported)
	assert.False(t, out.Delivered)
	assert.Equal(t, 3, out.MessageCount)
	assert.Equal(t, "chat_historico_20240305_1742.txt", out.Filename)
	assert.Equal(t, transcriptContentType, out.ContentType)

	decoded, err := base64.StdEncoding.DecodeString(out.Content)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "ISP: Fibra Sul Telecom")
	assert.Contains(t, string(decoded), "👤 Usuário:\nQual o faturamento?")
}

func TestHandler_Execute_EmailDelivery(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, "analista@watch.tv.br", "Histórico de Chat - ISP Assistant",
		mock.MatchedBy(func(body string) bool { return body != "" }),
		mock.MatchedBy(func(atts []aws.Attachment) bool {
			return len(atts) == 1 && atts[0].Filename == "chat_historico_20240305_1742.txt"
		})).Return("0100018e-abc", nil)

	h, store, _ := newTestHandler(t, mailer)
	seedSession(t, store)

	out, err := h.Execute(context.Background(), &Input{SessionID: "s-1", Email: " analista@watch.tv.br "})
	require.NoError(t, err)

	assert.True(t, out.Delivered)
	assert.Equal(t, "0100018e-abc", out.MessageID)
	mailer.AssertExpectations(t)
}

func TestHandler_Execute_EmailDisabled(t *testing.T) {
	mailer := new(MockMailer)
	h, store, _ := newTestHandler(t, mailer)
	h.config.EmailEnabled = false
	seedSession(t, store)

	out, err := h.Execute(context.Background(), &Input{SessionID: "s-1", Email: "analista@watch.tv.br"})
	require.NoError(t, err)

	assert.True(t, out.Exported)
	assert.False(t, out.Delivered)
	mailer.AssertNotCalled(t, "Send")
}

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("delivery failure", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("MessageRejected: Email address is not verified"))
		h, store, _ := newTestHandler(t, mailer)
		seedSession(t, store)

		_, err := h.Execute(context.Background(), &Input{SessionID: "s-1", Email: "analista@watch.tv.br"})
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeExportDeliveryFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})

	t.Run("invalid email", func(t *testing.T) {
		h, _, _ := newTestHandler(t, nil)

		_, err := h.Execute(context.Background(), &Input{SessionID: "s-1", Email: "not-an-email"})
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
	})

	t.Run("store down", func(t *testing.T) {
		h, _, mr := newTestHandler(t, nil)
		mr.SetError("LOADING redis is loading")

		_, err := h.Execute(context.Background(), &Input{SessionID: "s-1"})
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, stdErr.Code)
	})
}

func TestHandler_Execute_EmptySession(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{SessionID: "unknown"})
	require.NoError(t, err)
	assert.False(t, out.Exported)
	assert.Empty(t, out.Content)
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	_, err := NewHandler(&Config{Location: time.UTC}, nil, nil, logger.NewZapAdapter(zaptest.NewLogger(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must be positive")
}
