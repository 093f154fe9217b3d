package notify

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failWith error
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestBroadcastIsScopedToOrganization(t *testing.T) {
	hub := NewHub()
	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register(a1, 1, 10)
	hub.Register(a2, 1, 11)
	hub.Register(b, 2, 20)

	sent := hub.Broadcast(1, nil, Message{Event: EventIngredientPriceChanged, Data: map[string]int{"ingredient_id": 5}})
	assert.Equal(t, 2, sent)
	assert.Len(t, a1.messages, 1)
	assert.Len(t, a2.messages, 1)
	assert.Empty(t, b.messages)

	var got Message
	require.NoError(t, json.Unmarshal(a1.messages[0], &got))
	assert.Equal(t, EventIngredientPriceChanged, got.Event)
}

func TestBroadcastToSingleUser(t *testing.T) {
	hub := NewHub()
	a1, a2 := &fakeConn{}, &fakeConn{}
	hub.Register(a1, 1, 10)
	hub.Register(a2, 1, 11)

	user := uint(11)
	assert.Equal(t, 1, hub.Broadcast(1, &user, Message{Event: EventMemberJoined}))
	assert.Empty(t, a1.messages)
	assert.Len(t, a2.messages, 1)
}

func TestBroadcastDropsBrokenConnections(t *testing.T) {
	hub := NewHub()
	broken := &fakeConn{failWith: errors.New("broken pipe")}
	hub.Register(broken, 1, 10)

	assert.Equal(t, 0, hub.Broadcast(1, nil, Message{Event: EventMemberJoined}))
	assert.True(t, broken.closed)
	assert.Equal(t, 0, hub.Clients(1))
}

func TestUnregister(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(conn, 3, 1)
	assert.Equal(t, 1, hub.Clients(3))

	hub.Unregister(conn)
	hub.Unregister(conn)
	assert.True(t, conn.closed)
	assert.Equal(t, 0, hub.Clients(3))
}
