package vm

import (
	"fmt"
	"sync"
)

// processConfig is the limits and permissions a process was spawned with.
// Memory and fuel limits are recorded but not enforced.
type processConfig struct {
	maxMemory         uint64
	maxFuel           uint64
	canCompileModules bool
	canCreateConfigs  bool
	canSpawnProcesses bool
	env               map[string]string
	args              []string
	preopenDirs       []string
}

const defaultMaxMemory = 4 << 30

// defaultProcessConfig is what root processes run with.
func defaultProcessConfig() processConfig {
	return processConfig{
		maxMemory:         defaultMaxMemory,
		canCompileModules: true,
		canCreateConfigs:  true,
		canSpawnProcesses: true,
	}
}

func (c processConfig) clone() processConfig {
	out := c
	out.env = make(map[string]string, len(c.env))
	for k, v := range c.env {
		out.env[k] = v
	}
	out.args = append([]string(nil), c.args...)
	out.preopenDirs = append([]string(nil), c.preopenDirs...)
	return out
}

type configTable struct {
	mx      sync.Mutex
	nextID  uint64
	configs map[uint64]*processConfig
}

func newConfigTable() *configTable {
	return &configTable{configs: make(map[uint64]*processConfig)}
}

// create returns a config that denies everything, the way the host defaults.
func (t *configTable) create() uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()

	t.nextID++
	t.configs[t.nextID] = &processConfig{maxMemory: defaultMaxMemory}
	return t.nextID
}

func (t *configTable) drop(id uint64) {
	t.mx.Lock()
	defer t.mx.Unlock()
	delete(t.configs, id)
}

// update runs [fn] on config [id] under the table lock and traps on unknown ids.
func (t *configTable) update(id uint64, fn func(c *processConfig)) {
	t.mx.Lock()
	defer t.mx.Unlock()

	c, ok := t.configs[id]
	if !ok {
		panic(fmt.Sprintf("config id %d not found", id))
	}
	fn(c)
}

func (t *configTable) snapshot(id uint64) (processConfig, bool) {
	t.mx.Lock()
	defer t.mx.Unlock()

	c, ok := t.configs[id]
	if !ok {
		return processConfig{}, false
	}
	return c.clone(), true
}
