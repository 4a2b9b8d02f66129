package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/school"
	logsvc "github.com/trezcool/academia/services/logger"
	badgerdb "github.com/trezcool/academia/storage/database/badger"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
)

func TestNew(t *testing.T) {
	c := New(core.NewTestConfig)

	err := c.Invoke(func(store school.Store, svc *enrollment.Service, server *echoapi.Server) {
		defer store.Close()
		assert.IsType(t, &dummydb.DB{}, store)
		assert.NotNil(t, svc)
		assert.NotNil(t, server)
	})
	require.NoError(t, err)
}

func TestNew_invalidRetakePolicy(t *testing.T) {
	c := New(func() *core.Config {
		conf := core.NewTestConfig()
		conf.Enrollment.RetakePolicy = "sometimes"
		return conf
	})
	err := c.Invoke(func(*enrollment.Service) {})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	logger := StoreLoggerParam{Logger: logsvc.NewDiscardLogger()}

	tests := []struct {
		engine   string
		wantType interface{}
		wantErr  bool
	}{
		{engine: EngineMemory, wantType: &dummydb.DB{}},
		{engine: "", wantType: &dummydb.DB{}},
		{engine: EngineBadger, wantType: &badgerdb.DB{}}, // in memory in test mode
		{engine: "mongo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Database.Engine = tt.engine

			store, err := NewStore(conf, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.wantType, store)
		})
	}
}
