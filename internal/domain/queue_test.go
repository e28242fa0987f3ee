package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityTierJSONRoundTrip(t *testing.T) {
	for _, tier := range []PriorityTier{TierNormal, TierHigh, TierVIP} {
		t.Run(tier.String(), func(t *testing.T) {
			data, err := json.Marshal(tier)
			require.NoError(t, err)
			assert.Equal(t, `"`+tier.String()+`"`, string(data))

			var back PriorityTier
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tier, back)
		})
	}
}

func TestPriorityTierUnmarshalRejectsUnknown(t *testing.T) {
	var tier PriorityTier
	assert.Error(t, json.Unmarshal([]byte(`"legendary"`), &tier))
	assert.Error(t, json.Unmarshal([]byte(`2`), &tier))
}

func TestQueuedRequestRoundTripsTier(t *testing.T) {
	data := []byte(`{"title": "Dynamite", "artist": "BTS", "tier": "vip"}`)

	var req QueuedRequest
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, TierVIP, req.Tier)
}
