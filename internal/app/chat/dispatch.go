package chat

import (
	"bytes"
	"encoding/json"
)

// Dispatch routes one inbound event from conn to the Hub. When the event
// produces an acknowledgment payload it is returned with ok set.
func (h *Hub) Dispatch(conn Conn, event string, data json.RawMessage) (ack any, ok bool) {
	logger := h.logger.With().Str("conn_id", conn.ID()).Str("event", event).Logger()

	switch event {
	case EventRequestUserList:
		h.RequestUserList(conn)

	case EventRequestHistory:
		h.RequestHistory(conn)

	case EventJoin:
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			logger.Warn().Err(err).Msg("Client sent invalid join payload")
			return nil, false
		}
		h.Join(conn, name)

	case EventMessage:
		content, kind, valid := decodeChatPayload(data)
		if !valid {
			logger.Debug().Msg("Dropping missing or unreadable message payload")
			return nil, false
		}
		h.Publish(conn, content, kind)

	case EventCreateRoom:
		var req CreateRoomRequest
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				logger.Warn().Err(err).Msg("Client sent invalid createRoom payload")
				return nil, false
			}
		}

		roomID, err := h.CreateRoom(conn, req)
		if err != nil {
			logger.Warn().Err(err).Msg("createRoom rejected")
			return nil, false
		}
		return CreateRoomAck{RoomID: roomID}, true

	default:
		logger.Warn().Msg("Client sent unsupported event")
	}

	return nil, false
}

// decodeChatPayload interprets a message payload. A string is user content, an
// object carries content and type (a missing or non-string type means user
// content), and any other JSON value is relayed as opaque content. Missing and null payloads are rejected.
func decodeChatPayload(data json.RawMessage) (content any, kind string, ok bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, "", false
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, "", false
		}
		return s, KindUser, true

	case '{':
		var obj struct {
			Content any `json:"content"`
			Type    any `json:"type"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, "", false
		}
		kind, _ = obj.Type.(string)
		if kind == "" {
			kind = KindUser
		}
		return obj.Content, kind, true
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, "", false
	}
	return v, KindUser, true
}
