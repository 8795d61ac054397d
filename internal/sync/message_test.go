package sync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage_OrderCreated(t *testing.T) {
	frame := []byte(`{
		"type": "order_created",
		"order": {"id": "ord-1", "orderNumber": "42", "tableNumber": 4, "status": "pending", "items": [], "total": 18.5},
		"kitchenOrder": {"id": "kot-1", "orderId": "ord-1", "orderNumber": "42", "items": [], "status": "pending"}
	}`)

	msg, err := DecodeMessage(frame)
	require.NoError(t, err)

	created, ok := msg.(*OrderCreated)
	require.True(t, ok)
	assert.Equal(t, "ord-1", created.Order.ID)
	assert.Equal(t, 4, created.Order.TableNumber)
	assert.Equal(t, "kot-1", created.KitchenOrder.ID)
	assert.Equal(t, "ord-1", created.DedupID())
}

func TestDecodeMessage_OrderStatusUpdate(t *testing.T) {
	frame := []byte(`{"type": "order_status_update", "orderId": "ord-7", "status": "completed", "orderNumber": "17", "tableNumber": 3}`)

	msg, err := DecodeMessage(frame)
	require.NoError(t, err)

	update, ok := msg.(*OrderStatusUpdate)
	require.True(t, ok)
	assert.Equal(t, "ord-7", update.OrderID)
	assert.Equal(t, "completed", string(update.Status))
	assert.Equal(t, 3, update.TableNumber)
}

func TestDecodeMessage_UnknownTypeIsRecoverable(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"type": "hologram_menu"}`))

	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, MessageType("hologram_menu"), unknown.Type)
}

func TestDecodeMessage_MalformedFrames(t *testing.T) {
	_, err := DecodeMessage([]byte(`not json at all`))
	assert.Error(t, err)

	_, err = DecodeMessage([]byte(`{"orderId": "ord-1"}`))
	assert.Error(t, err, "a frame without a type field is malformed")
}

func TestEncodeMessage_CarriesTypeTag(t *testing.T) {
	frame, err := EncodeMessage(&RequestSync{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "request_sync", decoded["type"])
}

func TestEncodeMessage_RoundTrip(t *testing.T) {
	frame, err := EncodeMessage(&ItemStatusUpdate{
		OrderID:  "ord-9",
		ItemID:   "item-3",
		Status:   "ready",
		ItemName: "Paneer Tikka",
	})
	require.NoError(t, err)

	msg, err := DecodeMessage(frame)
	require.NoError(t, err)

	update, ok := msg.(*ItemStatusUpdate)
	require.True(t, ok)
	assert.Equal(t, "ord-9", update.OrderID)
	assert.Equal(t, "Paneer Tikka", update.ItemName)
}
