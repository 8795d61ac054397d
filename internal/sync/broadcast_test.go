package sync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

func newTestService(t *testing.T, dial CloudDialer, lan LanCollaborator, isHost bool, cb Callbacks) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	svc := NewService(Options{
		CloudBaseURL: "wss://sync.test",
		DeviceType:   "pos",
		IsLanHost:    isHost,
		Dialer:       dial,
		Lan:          lan,
		Clock:        clock,
	})
	require.NoError(t, svc.Initialize("tenant-1", cb))
	t.Cleanup(svc.Shutdown)
	return svc, clock
}

func waitCloudConnected(t *testing.T, svc *Service) {
	t.Helper()
	require.Eventually(t, func() bool {
		return svc.cloud.State() == StateConnected
	}, 2*time.Second, 5*time.Millisecond, "cloud channel never connected")
}

func waitLanRole(t *testing.T, svc *Service, role string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return svc.GetDetailedStatus().LanRole == role
	}, 2*time.Second, 5*time.Millisecond, "LAN role never became %s", role)
}

// lastFrame returns the newest frame written to the cloud socket
func lastFrame(t *testing.T, conn *fakeConn) map[string]json.RawMessage {
	t.Helper()
	frames := conn.sentFrames()
	require.NotEmpty(t, frames)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frames[len(frames)-1], &decoded))
	return decoded
}

func TestBroadcastStaffSync_NeverLeaksPins(t *testing.T) {
	dialer := &fakeDialer{}
	svc, _ := newTestService(t, dialer.dial, nil, false, Callbacks{})
	waitCloudConnected(t, svc)

	result := svc.BroadcastStaffSync([]models.StaffMember{
		{ID: "st-1", Name: "Asha", Role: models.StaffRoleWaiter, Pin: "4821", PinHash: "$2a$10$secret", Active: true},
	})
	assert.True(t, result.Cloud)

	frame := lastFrame(t, dialer.lastConn())

	var staff []map[string]interface{}
	require.NoError(t, json.Unmarshal(frame["staff"], &staff))
	require.Len(t, staff, 1)
	assert.Equal(t, models.PinMask, staff[0]["pin"])
	assert.Equal(t, "Asha", staff[0]["name"])
	_, hasHash := staff[0]["pinHash"]
	assert.False(t, hasHash, "pin hash must never be serialized")

	// The local roster keeps the hashed credential the wire frame lost
	assert.True(t, svc.Staff().VerifyPin("st-1", "4821"))
	assert.False(t, svc.Staff().VerifyPin("st-1", "0000"))
}

func TestBroadcastStaffAdded_RedactsPin(t *testing.T) {
	dialer := &fakeDialer{}
	svc, _ := newTestService(t, dialer.dial, nil, false, Callbacks{})
	waitCloudConnected(t, svc)

	svc.BroadcastStaffAdded(models.StaffMember{ID: "st-2", Name: "Ravi", Pin: "9999", PinHash: "$2a$10$secret"})

	frame := lastFrame(t, dialer.lastConn())
	var member map[string]interface{}
	require.NoError(t, json.Unmarshal(frame["staff"], &member))
	assert.Equal(t, models.PinMask, member["pin"])
	_, hasHash := member["pinHash"]
	assert.False(t, hasHash)
}

func TestBroadcastOrderCreated_TakesBothPathsWhenHosting(t *testing.T) {
	dialer := &fakeDialer{}
	lan := &fakeLan{broadcastCount: 2}
	svc, _ := newTestService(t, dialer.dial, lan, true, Callbacks{})
	waitCloudConnected(t, svc)
	waitLanRole(t, svc, "server")

	events := lan.fire()
	events.OnClientConnected(LanClientInfo{ClientID: "kds-1", DeviceType: "kds"})
	events.OnClientConnected(LanClientInfo{ClientID: "bds-1", DeviceType: "bds"})

	result := svc.BroadcastOrderCreated(
		models.Order{ID: "ord-1", OrderNumber: "101", Status: models.OrderStatusPending},
		models.KitchenOrder{ID: "kot-1", OrderID: "ord-1"},
	)

	assert.True(t, result.Cloud)
	assert.Equal(t, 2, result.LanClients)
	assert.Equal(t, 1, lan.orderBroadcastCount())

	frame := lastFrame(t, dialer.lastConn())
	var kind string
	require.NoError(t, json.Unmarshal(frame["type"], &kind))
	assert.Equal(t, "order_created", kind)
}

func TestBroadcastOrderCreated_SkipsLanWithoutClients(t *testing.T) {
	dialer := &fakeDialer{}
	lan := &fakeLan{broadcastCount: 2}
	svc, _ := newTestService(t, dialer.dial, lan, true, Callbacks{})
	waitCloudConnected(t, svc)
	waitLanRole(t, svc, "server")

	result := svc.BroadcastOrderCreated(
		models.Order{ID: "ord-2", OrderNumber: "102"},
		models.KitchenOrder{ID: "kot-2", OrderID: "ord-2"},
	)

	assert.True(t, result.Cloud)
	assert.Equal(t, 0, result.LanClients)
	assert.Equal(t, 0, lan.orderBroadcastCount())
}

func TestStaffBroadcasts_NeverTakeLanPath(t *testing.T) {
	dialer := &fakeDialer{}
	lan := &fakeLan{broadcastCount: 3}
	svc, _ := newTestService(t, dialer.dial, lan, true, Callbacks{})
	waitCloudConnected(t, svc)
	waitLanRole(t, svc, "server")
	lan.fire().OnClientConnected(LanClientInfo{ClientID: "kds-1", DeviceType: "kds"})

	result := svc.BroadcastStaffSync([]models.StaffMember{{ID: "st-1", Name: "Asha"}})

	assert.True(t, result.Cloud)
	assert.Equal(t, 0, result.LanClients)
	assert.Equal(t, 0, lan.orderBroadcastCount())
}

func TestBroadcast_WithSocketClosedReportsFailureAndKeepsLocalState(t *testing.T) {
	svc, _ := newTestService(t, failingDialer, nil, false, Callbacks{})

	result := svc.BroadcastOrderCreated(
		models.Order{ID: "ord-3", OrderNumber: "103", Status: models.OrderStatusPending},
		models.KitchenOrder{ID: "kot-3", OrderID: "ord-3"},
	)

	assert.Equal(t, BroadcastResult{Cloud: false, LanClients: 0}, result)

	orders := svc.ActiveOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-3", orders[0].ID)
}

func TestBroadcastOrderCreated_EchoFromPeerIsDiscarded(t *testing.T) {
	dialer := &fakeDialer{}
	seen := make(chan string, 4)
	svc, _ := newTestService(t, dialer.dial, nil, false, Callbacks{
		OnOrderCreated: func(order models.Order, _ models.KitchenOrder) { seen <- order.ID },
	})
	waitCloudConnected(t, svc)

	svc.BroadcastOrderCreated(
		models.Order{ID: "ord-mine", OrderNumber: "104"},
		models.KitchenOrder{ID: "kot-mine", OrderID: "ord-mine"},
	)

	conn := dialer.lastConn()
	// The cloud relays our own order back, then delivers a genuinely new
	// one. Frames are processed in order, so once the second arrives the
	// echo has already been handled.
	conn.deliver([]byte(`{"type":"order_created","order":{"id":"ord-mine","orderNumber":"104"},"kitchenOrder":{"id":"kot-mine","orderId":"ord-mine"}}`))
	conn.deliver([]byte(`{"type":"order_created","order":{"id":"ord-peer","orderNumber":"105"},"kitchenOrder":{"id":"kot-peer","orderId":"ord-peer"}}`))

	select {
	case id := <-seen:
		assert.Equal(t, "ord-peer", id, "our own echo must not reach the callback")
	case <-time.After(2 * time.Second):
		t.Fatal("peer order never reached the callback")
	}
	select {
	case id := <-seen:
		t.Fatalf("unexpected second callback for %s", id)
	default:
	}
}
