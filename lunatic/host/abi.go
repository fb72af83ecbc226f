// Package host describes the ABI a lunatic guest uses to talk to its host.
//
// Every import the host offers lives in a namespace (lunatic::message,
// lunatic::process, ...). [ABI] groups one Go interface per namespace; method
// names carry the namespace as a prefix so the groups can be composed without
// collisions.
//
// Under GOOS=wasip1 [Wasm] returns an ABI backed by //go:wasmimport functions.
// Any other implementation, such as the in-process host in package vm, is free
// to satisfy the same interface. An ABI value is always bound to exactly one
// process: calls like [Messages.MessageReceive] act on the calling process.
//
// Calls that can fail return a host id together with an ok flag. When ok is
// false the id refers to an entry in the host error table, see [Errors].
package host

import "net/netip"

// Result codes returned by [Messages.MessageReceive] and the send-receive variants.
const (
	// DataMessage means a data message was moved into the receive scratch area.
	DataMessage uint32 = 0
	// LinkDied means a linked process died; the link tag is readable through MessageGetTag.
	LinkDied uint32 = 1
	// ProcessDied means a monitored process died; its id is the 8 byte payload.
	ProcessDied uint32 = 2
	// Timeout means nothing matched before the timeout passed.
	Timeout uint32 = 9027
)

// Result codes returned by the networking read and write calls.
const (
	NetOK      uint32 = 0
	NetError   uint32 = 1
	NetTimeout uint32 = Timeout
)

// Step results returned by [Sqlite.SqliteStep].
const (
	SqliteRow  uint32 = 100
	SqliteDone uint32 = 101
)

// InheritConfig and InheritModule make a spawned process reuse its parent's config or module.
const (
	InheritConfig int64 = -1
	InheritModule int64 = -1
)

// NoTimeout is the millisecond value meaning "block forever".
const NoTimeout uint64 = 1<<64 - 1

// ABI is the complete host interface available to one guest process.
type ABI interface {
	Errors
	Messages
	Processes
	Registry
	Timers
	Networking
	Wasi
	Version
	Metrics
	Distributed
	Sqlite
	Trap
}

// Errors is the lunatic::error namespace.
type Errors interface {
	ErrorStringSize(id uint64) uint32
	ErrorToString(id uint64, buf []byte)
	ErrorDrop(id uint64)
}

// Messages is the lunatic::message namespace.
//
// Each process has one outgoing message, started with MessageCreateData, and one
// incoming message, filled by a successful receive. Data and resource calls act on
// whichever of the two is relevant: writes and pushes go to the outgoing message,
// reads and takes come from the incoming one.
type Messages interface {
	MessageCreateData(tag int64, capacity uint64)
	MessageWriteData(p []byte) int
	MessageReadData(p []byte) int
	MessageSeekData(pos uint64)
	MessageGetTag() int64
	MessageDataSize() uint64

	MessagePushProcess(nodeID, processID uint64) uint64
	MessageTakeProcess(index uint64) (nodeID, processID uint64, ok bool)
	MessagePushTCPStream(streamID uint64) uint64
	MessageTakeTCPStream(index uint64) (streamID uint64, ok bool)
	MessagePushTLSStream(streamID uint64) uint64
	MessageTakeTLSStream(index uint64) (streamID uint64, ok bool)

	MessageSend(processID uint64)
	MessageSendReceiveSkipSearch(processID uint64, waitOnTag int64, timeoutMs uint64) uint32
	MessageReceive(tags []int64, timeoutMs uint64) uint32
}

// Processes is the lunatic::process namespace.
type Processes interface {
	ProcessSpawn(link int64, configID int64, moduleID int64, function string, params []byte) (id uint64, ok bool)
	ProcessThis() uint64
	ProcessID(processID uint64) [16]byte
	ProcessExists(processID uint64) bool
	ProcessLink(tag int64, processID uint64)
	ProcessUnlink(processID uint64)
	ProcessKill(processID uint64)
	ProcessMonitor(processID uint64)
	ProcessDemonitor(processID uint64)
	ProcessDieWhenLinkDies(trap bool)
	ProcessSleepMs(ms uint64)

	ProcessCreateConfig() (id uint64, ok bool)
	ProcessDropConfig(configID uint64)
	ProcessConfigSetMaxMemory(configID uint64, maxMemory uint64)
	ProcessConfigGetMaxMemory(configID uint64) uint64
	ProcessConfigSetMaxFuel(configID uint64, maxFuel uint64)
	ProcessConfigGetMaxFuel(configID uint64) uint64
	ProcessConfigSetCanCompileModules(configID uint64, can bool)
	ProcessConfigCanCompileModules(configID uint64) bool
	ProcessConfigSetCanCreateConfigs(configID uint64, can bool)
	ProcessConfigCanCreateConfigs(configID uint64) bool
	ProcessConfigSetCanSpawnProcesses(configID uint64, can bool)
	ProcessConfigCanSpawnProcesses(configID uint64) bool
}

// Registry is the lunatic::registry namespace.
type Registry interface {
	RegistryPut(name string, nodeID, processID uint64)
	RegistryGet(name string) (nodeID, processID uint64, found bool)
	RegistryGetOrPutLater(name string) (nodeID, processID uint64, found bool)
	RegistryRemove(name string)
}

// Timers is the lunatic::timer namespace.
type Timers interface {
	// TimerSendAfter sends the current outgoing message to [processID] after [ms] milliseconds.
	TimerSendAfter(processID uint64, ms uint64) uint64
	// TimerCancel returns true if the timer was cancelled before it fired.
	TimerCancel(timerID uint64) bool
}

// Networking is the lunatic::networking namespace.
type Networking interface {
	Resolve(name string, timeoutMs uint64) (addrs []netip.AddrPort, errID uint64, ok bool)

	TCPBind(addr netip.AddrPort) (id uint64, ok bool)
	TCPLocalAddr(listenerID uint64) (addr netip.AddrPort, errID uint64, ok bool)
	TCPAccept(listenerID uint64) (streamID uint64, peer netip.AddrPort, ok bool)
	TCPConnect(addr netip.AddrPort, timeoutMs uint64) (id uint64, ok bool)
	TCPRead(streamID uint64, buf []byte, timeoutMs uint64) (value uint64, result uint32)
	TCPWrite(streamID uint64, buf []byte, timeoutMs uint64) (value uint64, result uint32)
	TCPFlush(streamID uint64) (errID uint64, ok bool)
	TCPCloneStream(streamID uint64) uint64
	TCPDropStream(streamID uint64)
	TCPDropListener(listenerID uint64)

	TLSBind(addr netip.AddrPort, certPEM, keyPEM []byte) (id uint64, ok bool)
	TLSLocalAddr(listenerID uint64) (addr netip.AddrPort, errID uint64, ok bool)
	TLSAccept(listenerID uint64) (streamID uint64, peer netip.AddrPort, ok bool)
	TLSConnect(host string, port uint16, timeoutMs uint64, rootCertsPEM []byte) (id uint64, ok bool)
	TLSRead(streamID uint64, buf []byte, timeoutMs uint64) (value uint64, result uint32)
	TLSWrite(streamID uint64, buf []byte, timeoutMs uint64) (value uint64, result uint32)
	TLSFlush(streamID uint64) (errID uint64, ok bool)
	TLSDropStream(streamID uint64)
	TLSDropListener(listenerID uint64)
}

// Wasi is the lunatic::wasi namespace.
type Wasi interface {
	WasiConfigAddEnvironmentVariable(configID uint64, key, value string)
	WasiConfigAddCommandLineArgument(configID uint64, arg string)
	WasiConfigPreopenDir(configID uint64, dir string)
}

// Version is the lunatic::version namespace.
type Version interface {
	VersionMajor() uint32
	VersionMinor() uint32
	VersionPatch() uint32
}

// Metrics is the lunatic::metrics namespace. Attributes are JSON encoded objects.
type Metrics interface {
	MetricsMeter(name string) uint64
	MetricsMeterDrop(meterID uint64)
	MetricsCounter(meterID uint64, name, description, unit string) uint64
	MetricsCounterDrop(counterID uint64)
	MetricsAdd(counterID uint64, value float64, attributes []byte)
	MetricsUpDownCounter(meterID uint64, name, description, unit string) uint64
	MetricsUpDownCounterDrop(counterID uint64)
	MetricsUpDownCounterAdd(counterID uint64, value float64, attributes []byte)
	MetricsHistogram(meterID uint64, name, description, unit string) uint64
	MetricsHistogramDrop(histogramID uint64)
	MetricsRecord(histogramID uint64, value float64, attributes []byte)
}

// Distributed is the lunatic::distributed namespace.
type Distributed interface {
	DistributedNodeID() uint64
	DistributedModuleID() uint64
	DistributedNodesCount() uint32
	DistributedGetNodes(buf []uint64) uint32
	DistributedSpawn(nodeID uint64, configID int64, moduleID uint64, function string, params []byte) (id uint64, ok bool)
	DistributedSend(nodeID, processID uint64) (errID uint64, ok bool)
	DistributedSendReceiveSkipSearch(nodeID, processID uint64, waitOnTag int64, timeoutMs uint64) uint32
}

// Sqlite is the lunatic::sqlite namespace. Bind lists, rows and column names are
// exchanged Bincode encoded.
type Sqlite interface {
	SqliteOpen(path string) (connID uint64, ok bool)
	SqliteExecute(connID uint64, query string) uint32
	SqlitePrepare(connID uint64, query string) (stmtID uint64, ok bool)
	SqliteBind(stmtID uint64, bindings []byte) uint32
	SqliteStep(stmtID uint64) uint32
	SqliteReadRow(stmtID uint64) []byte
	SqliteColumnNames(stmtID uint64) []byte
	SqliteReset(stmtID uint64)
	SqliteFinalize(stmtID uint64)
	SqliteChanges(connID uint64) uint32
	SqliteLastError(connID uint64) string
	SqliteClose(connID uint64)
}

// Trap is the lunatic::trap namespace.
type Trap interface {
	// TrapCatch re-enters the guest through the _lunatic_catch_trap export with
	// [entry] and [arg]. It returns the export's result, or 0 if the call trapped.
	TrapCatch(entry, arg uint64) uint64
}
