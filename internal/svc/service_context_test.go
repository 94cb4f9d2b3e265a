package svc

import (
	"testing"

	"scoreboard/internal/broadcast"
	"scoreboard/internal/config"
	"scoreboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Redis:          config.RedisConf{Addr: "127.0.0.1:6379"},
		Actions:        map[string]int64{"complete-quest": 10},
		Store:          "memory",
		TopK:           10,
		LockWaitMillis: 100,
		Stream:         config.StreamConf{SendBuffer: 16},
		Limit:          config.LimitConf{PeriodSeconds: 1, Quota: 10},
	}
}

func TestNewServiceContextMemoryStore(t *testing.T) {
	svcCtx, err := NewServiceContext(testConfig())
	require.NoError(t, err)
	assert.IsType(t, &model.MemoryScoreStore{}, svcCtx.Store)
	assert.IsType(t, &broadcast.Hub{}, svcCtx.Notifier)
}

func TestNewServiceContextRejectsBadActionTable(t *testing.T) {
	tests := []struct {
		name    string
		actions map[string]int64
	}{
		{
			name:    "empty table",
			actions: nil,
		},
		{
			name:    "zero points",
			actions: map[string]int64{"idle": 0},
		},
		{
			name:    "negative points",
			actions: map[string]int64{"complete-quest": 10, "cheat": -5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			c.Actions = tt.actions
			_, err := NewServiceContext(c)
			assert.Error(t, err, "a table that could shrink scores must fail startup")
		})
	}
}
