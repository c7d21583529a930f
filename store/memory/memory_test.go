package memory_test

import (
	"testing"

	"github.com/warp/solar-engine/store/memory"
	"github.com/warp/solar-engine/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return memory.New() })
}
