package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeliveryGetOrCreate(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	deliveries := NewDeliveries(tx)

	first, err := deliveries.GetOrCreate(&Delivery{
		Source:    "https://a.example/reply",
		Target:    "https://b.example/post",
		Direction: DirectionOut,
		Protocol:  ProtocolActivityPub,
	})
	require.NoError(err)
	require.Equal(DeliveryStatusNew, first.Status)

	first.Status = DeliveryStatusComplete
	first.SourceEntry = map[string]any{"url": "https://a.example/reply"}
	require.NoError(deliveries.Update(first))

	// reprocessing the same pair returns the completed row
	second, err := deliveries.GetOrCreate(&Delivery{
		Source:    "https://a.example/reply",
		Target:    "https://b.example/post",
		Direction: DirectionOut,
		Protocol:  ProtocolActivityPub,
	})
	require.NoError(err)
	require.True(second.Complete())
	require.Equal("https://a.example/reply", second.SourceEntry["url"])

	// a different protocol to the same target is a separate delivery
	third, err := deliveries.GetOrCreate(&Delivery{
		Source:    "https://a.example/reply",
		Target:    "https://b.example/post",
		Direction: DirectionOut,
		Protocol:  ProtocolOStatus,
	})
	require.NoError(err)
	require.Equal(DeliveryStatusNew, third.Status)
}
