package coremodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

func TestNewUnhandledCommand(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := cec.NewFrame(cec.LogicalAddressTV, cec.LogicalAddressPlayback1, cec.OpStandby, 0xAB)

	c := NewUnhandledCommand(cec.LogicalAddressPlayback1, f, at)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, uint8(4), c.Device)
	assert.Equal(t, uint8(0), c.Initiator)
	require.NotNil(t, c.Opcode)
	assert.Equal(t, uint8(0x36), *c.Opcode)
	assert.Equal(t, "ab", c.Parameters)
	assert.Equal(t, "04:36:AB", c.Raw)
	assert.Equal(t, at, c.ReceivedAt)
}

func TestNewUnhandledCommand_Poll(t *testing.T) {
	c := NewUnhandledCommand(cec.LogicalAddressPlayback1, cec.NewPoll(cec.LogicalAddressTV, cec.LogicalAddressPlayback1), time.Now())
	assert.Nil(t, c.Opcode)
	assert.Equal(t, "", c.Parameters)
	assert.Equal(t, "04", c.Raw)
}
