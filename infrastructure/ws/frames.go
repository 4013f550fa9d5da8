package ws

import (
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/infrastructure/http/dto"
)

type FrameType string

const (
	// client -> server
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FramePing        FrameType = "ping"

	// server -> client
	FrameEvent    FrameType = "event"
	FrameError    FrameType = "error"
	FrameComplete FrameType = "complete"
	FramePong     FrameType = "pong"
)

// ClientFrame is every frame a client may send. ID is chosen by the client
// and names the subscription on this connection.
type ClientFrame struct {
	Type           FrameType `json:"type"`
	ID             string    `json:"id,omitempty"`
	Topic          string    `json:"topic,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
}

type ServerFrame struct {
	Type    FrameType `json:"type"`
	ID      string    `json:"id,omitempty"`
	Topic   string    `json:"topic,omitempty"`
	Payload any       `json:"payload,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

func eventFrame(id string, evt event.DomainEvent) ServerFrame {
	return ServerFrame{Type: FrameEvent, ID: id, Topic: string(evt.Topic()), Payload: dto.FromEvent(evt)}
}

func errorFrame(id string, err error) ServerFrame {
	return ServerFrame{Type: FrameError, ID: id, Code: errors.CodeName(err), Message: errors.PublicMessage(err)}
}

func completeFrame(id string) ServerFrame {
	return ServerFrame{Type: FrameComplete, ID: id}
}
