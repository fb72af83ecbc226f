package lunatic

import (
	"fmt"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// ProcessConfig is a host process configuration: resource limits, capabilities
// and the WASI environment of the processes spawned with it. A new config
// denies every capability until it is granted.
type ProcessConfig struct {
	inst *Instance
	id   int64
}

// NewProcessConfig creates a config on the host. It fails with
// [ErrPermissionDenied] if the calling process may not create configs.
func NewProcessConfig(inst *Instance) (*ProcessConfig, error) {
	id, ok := inst.abi.ProcessCreateConfig()
	if !ok {
		lerr := newLunaticError(inst, id)
		msg := lerr.Error()
		lerr.Drop()
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	}
	return &ProcessConfig{inst: inst, id: int64(id)}, nil
}

// Inherit is the config of the spawning process.
func Inherit() *ProcessConfig {
	return &ProcessConfig{id: host.InheritConfig}
}

func (c *ProcessConfig) ID() int64 {
	return c.id
}

func (c *ProcessConfig) IsInherit() bool {
	return c.id == host.InheritConfig
}

func (c *ProcessConfig) hostID() uint64 {
	if c.IsInherit() {
		panic("lunatic: the inherited config cannot be read or changed")
	}
	return uint64(c.id)
}

func (c *ProcessConfig) SetMaxMemory(bytes uint64) *ProcessConfig {
	c.inst.abi.ProcessConfigSetMaxMemory(c.hostID(), bytes)
	return c
}

func (c *ProcessConfig) MaxMemory() uint64 {
	return c.inst.abi.ProcessConfigGetMaxMemory(c.hostID())
}

// SetMaxFuel limits the instructions a process may execute, in units of 100k. 0 is unlimited.
func (c *ProcessConfig) SetMaxFuel(fuel uint64) *ProcessConfig {
	c.inst.abi.ProcessConfigSetMaxFuel(c.hostID(), fuel)
	return c
}

func (c *ProcessConfig) MaxFuel() uint64 {
	return c.inst.abi.ProcessConfigGetMaxFuel(c.hostID())
}

func (c *ProcessConfig) SetCanCompileModules(can bool) *ProcessConfig {
	c.inst.abi.ProcessConfigSetCanCompileModules(c.hostID(), can)
	return c
}

func (c *ProcessConfig) CanCompileModules() bool {
	return c.inst.abi.ProcessConfigCanCompileModules(c.hostID())
}

func (c *ProcessConfig) SetCanCreateConfigs(can bool) *ProcessConfig {
	c.inst.abi.ProcessConfigSetCanCreateConfigs(c.hostID(), can)
	return c
}

func (c *ProcessConfig) CanCreateConfigs() bool {
	return c.inst.abi.ProcessConfigCanCreateConfigs(c.hostID())
}

func (c *ProcessConfig) SetCanSpawnProcesses(can bool) *ProcessConfig {
	c.inst.abi.ProcessConfigSetCanSpawnProcesses(c.hostID(), can)
	return c
}

func (c *ProcessConfig) CanSpawnProcesses() bool {
	return c.inst.abi.ProcessConfigCanSpawnProcesses(c.hostID())
}

func (c *ProcessConfig) AddEnvironmentVariable(key, value string) *ProcessConfig {
	c.inst.abi.WasiConfigAddEnvironmentVariable(c.hostID(), key, value)
	return c
}

func (c *ProcessConfig) AddCommandLineArgument(arg string) *ProcessConfig {
	c.inst.abi.WasiConfigAddCommandLineArgument(c.hostID(), arg)
	return c
}

func (c *ProcessConfig) PreopenDir(dir string) *ProcessConfig {
	c.inst.abi.WasiConfigPreopenDir(c.hostID(), dir)
	return c
}

// Drop releases the host config. Processes already spawned with it keep their settings.
func (c *ProcessConfig) Drop() {
	if c.IsInherit() || c.inst == nil {
		return
	}
	c.inst.abi.ProcessDropConfig(uint64(c.id))
	c.inst = nil
}
