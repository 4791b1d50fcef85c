package http

import (
	"net/http"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/proto"
)

var eventNames = map[core.EventKind]string{
	core.EventMessagesReceived:      proto.EventMessagesReceived,
	core.EventCmdMessagesReceived:   proto.EventCmdMessagesReceived,
	core.EventMessagesDelivered:     proto.EventMessagesDelivered,
	core.EventMessageDeliveryAck:    proto.EventMessageDeliveryAck,
	core.EventMessagesRead:          proto.EventMessagesRead,
	core.EventMessageReadAck:        proto.EventMessageReadAck,
	core.EventMessagesRecalled:      proto.EventMessagesRecalled,
	core.EventGroupMessageRead:      proto.EventGroupMessageRead,
	core.EventGroupAckUpdated:       proto.EventGroupAckUpdated,
	core.EventReactionChanged:       proto.EventReactionChanged,
	core.EventMessageContentChanged: proto.EventMessageContentChanged,
	core.EventMessagePinChanged:     proto.EventMessagePinChanged,
	core.EventConversationUpdate:    proto.EventConversationUpdate,
	core.EventConversationRead:      proto.EventConversationRead,
	core.EventOperationProgress:     proto.EventOperationProgress,
	core.EventOperationSuccess:      proto.EventOperationSuccess,
	core.EventOperationError:        proto.EventOperationError,
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: eventNames[event.Kind]}

	switch event.Kind {
	case core.EventMessagesReceived, core.EventCmdMessagesReceived, core.EventMessagesDelivered,
		core.EventMessagesRead, core.EventMessagesRecalled:
		out.Data = event.Messages
	case core.EventMessageDeliveryAck, core.EventMessageReadAck:
		out.Data = event.Message
	case core.EventGroupMessageRead:
		out.Data = event.GroupAcks
	case core.EventReactionChanged:
		out.Data = event.ReactionChanges
	case core.EventMessageContentChanged:
		out.Data = proto.ContentChanged{
			Message:       event.Message,
			Operator:      event.Operator,
			OperationTime: event.OperationTime,
		}
	case core.EventMessagePinChanged:
		pin := proto.PinChanged{
			MessageID:      event.MessageID,
			ConversationID: event.ConversationID,
			PinOperation:   int(event.PinOperation),
		}
		if event.Pin != nil {
			pin.Pin = event.Pin
		}
		out.Data = pin
	case core.EventConversationRead:
		out.Data = proto.ConversationRead{From: event.From, To: event.To}
	case core.EventOperationProgress:
		out.Data = proto.OperationProgress{LocalID: event.LocalID, Progress: event.Progress}
	case core.EventOperationSuccess, core.EventOperationError:
		res := proto.OperationResult{LocalID: event.LocalID}
		if event.Message != nil {
			res.Message = event.Message
		}
		if event.Error != nil {
			res.Error = coreToProto(event.Error)
		}
		out.Data = res
	}
	return out
}

func replyFor(id string, data any, err error) proto.Outbound {
	if err != nil {
		return proto.Outbound{Type: proto.OutboundTypeReply, ID: id, Error: protoError(err)}
	}
	return proto.Outbound{Type: proto.OutboundTypeReply, ID: id, Data: data}
}

// protoError converts a dispatch failure into its wire form. Errors that
// are not *core.CoreError are reported as engine errors with the general code.
func protoError(err error) *proto.Error {
	if cerr, ok := core.AsCoreError(err); ok {
		return coreToProto(cerr)
	}
	return &proto.Error{Kind: string(core.KindEngine), Code: engine.ErrCodeGeneral, Message: err.Error()}
}

func coreToProto(cerr *core.CoreError) *proto.Error {
	return &proto.Error{Kind: string(cerr.Kind), Code: cerr.Code, Message: cerr.Message}
}

func httpStatus(kind string) int {
	switch core.ErrorKind(kind) {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
