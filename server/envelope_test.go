package server

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vendor-chat/domain/chat"
	"vendor-chat/domain/event"
	"vendor-chat/errors"
)

func Test_EncodeEvent_MessageCreated(t *testing.T) {
	req := require.New(t)
	vendorID := chat.VendorID(3)
	created := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)

	envelope, ok := encodeEvent(event.MessageCreated{
		Message: chat.Message{
			ID:           42,
			Conversation: 7,
			Content:      "We can start Monday",
			SenderType:   chat.SenderVendor,
			VendorID:     &vendorID,
			CreatedAt:    created,
		},
		Vendor: &chat.Vendor{Name: "Vera Vendor", Company: "Initech"},
	})
	req.True(ok)
	req.Equal(eventMessageCreated, envelope.Event)

	var payload messagePayload
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Equal(int64(42), payload.ID)
	req.Equal(int64(7), payload.ConversationID)
	req.Equal("vendor", payload.SenderType)
	req.Equal(created.Format(time.RFC3339Nano), payload.CreatedAt)
	req.NotNil(payload.Vendor)
	req.Equal("Vera Vendor", payload.Vendor.Name)
	req.Equal("Initech", payload.Vendor.Company)
}

func Test_EncodeEvent_HistorySnapshot_Keeps_Message_Order(t *testing.T) {
	req := require.New(t)

	snapshot := event.HistorySnapshot{Conversation: 7}
	for i := int64(1); i <= 3; i++ {
		snapshot.Messages = append(snapshot.Messages, event.MessageCreated{
			Message: chat.Message{
				ID:           i,
				Conversation: 7,
				Content:      fmt.Sprintf("message %d", i),
				SenderType:   chat.SenderUser,
				CreatedAt:    time.Now().UTC(),
			},
		})
	}

	envelope, ok := encodeEvent(snapshot)
	req.True(ok)
	req.Equal(eventHistorySnapshot, envelope.Event)

	var payload historySnapshotPayload
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Len(payload.Messages, 3)
	for i, message := range payload.Messages {
		req.Equal(int64(i+1), message.ID)
	}
}

func Test_EncodeEvent_OperationFailed(t *testing.T) {
	req := require.New(t)

	envelope, ok := encodeEvent(event.OperationFailed{
		Conversation: 7,
		Code:         codeNotFound,
		Reason:       "conversation not found",
	})
	req.True(ok)
	req.Equal(eventError, envelope.Event)

	var payload errorPayload
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Equal(codeNotFound, payload.Code)
	req.Equal("conversation not found", payload.Message)
}

func Test_ErrorCode_Maps_Sentinels(t *testing.T) {
	req := require.New(t)

	req.Equal(codeNotFound, errorCode(errors.ErrConversationNotFound))
	req.Equal(codeNotFound, errorCode(errors.ErrVendorNotFound))
	req.Equal(codeValidation, errorCode(errors.ErrEmptyContent))
	req.Equal(codeValidation, errorCode(errors.ErrVendorRequired))
	req.Equal(codeValidation, errorCode(errors.ErrInvalidSenderType))
	req.Equal(codePersistence, errorCode(fmt.Errorf("disk full")))
}
