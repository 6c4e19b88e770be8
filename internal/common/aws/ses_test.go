package aws

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendRawEmailFunc func(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

func (m *MockSESService) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	return m.SendRawEmailFunc(ctx, params, optFns...)
}

func TestMailer_Send(t *testing.T) {
	var captured *ses.SendRawEmailInput
	mock := &MockSESService{
		SendRawEmailFunc: func(_ context.Context, params *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
			captured = params
			return &ses.SendRawEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	}

	mailer := NewMailer(mock, "assistant@example.com")
	id, err := mailer.Send(context.Background(), "am@example.com", "Histórico de Chat", "segue anexo",
		Attachment{Filename: "chat_historico_20240115_1030.txt", Data: []byte("conteúdo")})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"am@example.com"}, captured.Destinations)

	msg, err := mail.ReadMessage(strings.NewReader(string(captured.RawMessage.Data)))
	require.NoError(t, err)
	assert.Equal(t, "assistant@example.com", msg.Header.Get("From"))
	assert.Contains(t, msg.Header.Get("Content-Type"), "multipart/mixed")
	assert.Contains(t, string(captured.RawMessage.Data), `filename=chat_historico_20240115_1030.txt`)
}

func TestMailer_SendError(t *testing.T) {
	mock := &MockSESService{
		SendRawEmailFunc: func(context.Context, *ses.SendRawEmailInput, ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	_, err := NewMailer(mock, "a@example.com").Send(context.Background(), "b@example.com", "s", "b")
	assert.ErrorContains(t, err, "throttled")
}
