package vm

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"
)

// Host version reported to guests.
const (
	versionMajor = 0
	versionMinor = 13
	versionPatch = 2
)

// sqlite result code for a failed call; the message is in SqliteLastError.
const sqliteError uint32 = 1

// upper bound on what MessageCreateData preallocates
const maxMessagePrealloc = 1 << 20

// processABI is the host.ABI bound to one process. Every call first makes sure
// the process is still alive, so a killed process unwinds at its next host call.
type processABI struct {
	vm *VM
	p  *process
	// outgoing message, started by MessageCreateData
	out *message
	// last received message
	in *message
}

var _ host.ABI = (*processABI)(nil)

func newProcessABI(p *process) *processABI {
	return &processABI{vm: p.vm, p: p}
}

func (a *processABI) takeOut() *message {
	if a.out == nil {
		panic("no outgoing message, call MessageCreateData first")
	}
	msg := a.out
	a.out = nil
	return msg
}

func (a *processABI) incoming() *message {
	if a.in == nil {
		panic("no message has been received")
	}
	return a.in
}

// ---- lunatic::error

func (a *processABI) ErrorStringSize(id uint64) uint32 {
	a.p.check()
	return uint32(len(a.vm.errors.get(id).Error()))
}

func (a *processABI) ErrorToString(id uint64, buf []byte) {
	a.p.check()
	copy(buf, a.vm.errors.get(id).Error())
}

func (a *processABI) ErrorDrop(id uint64) {
	a.p.check()
	a.vm.errors.drop(id)
}

// ---- lunatic::message

func (a *processABI) MessageCreateData(tag int64, capacity uint64) {
	a.p.check()
	a.out = &message{tag: tag, data: make([]byte, 0, min(capacity, maxMessagePrealloc))}
}

func (a *processABI) MessageWriteData(p []byte) int {
	a.p.check()
	if a.out == nil {
		panic("no outgoing message, call MessageCreateData first")
	}
	a.out.data = append(a.out.data, p...)
	return len(p)
}

func (a *processABI) MessageReadData(p []byte) int {
	a.p.check()
	in := a.incoming()
	n := copy(p, in.data[in.readPos:])
	in.readPos += n
	return n
}

func (a *processABI) MessageSeekData(pos uint64) {
	a.p.check()
	in := a.incoming()
	in.readPos = int(min(pos, uint64(len(in.data))))
}

func (a *processABI) MessageGetTag() int64 {
	a.p.check()
	return a.incoming().tag
}

func (a *processABI) MessageDataSize() uint64 {
	a.p.check()
	return uint64(len(a.incoming().data))
}

func (a *processABI) MessagePushProcess(nodeID, processID uint64) uint64 {
	a.p.check()
	if a.out == nil {
		panic("no outgoing message, call MessageCreateData first")
	}
	return a.out.push(resource{kind: resourceProcess, node: nodeID, id: processID})
}

func (a *processABI) MessageTakeProcess(index uint64) (uint64, uint64, bool) {
	a.p.check()
	r, ok := a.in.take(resourceProcess, index)
	return r.node, r.id, ok
}

func (a *processABI) MessagePushTCPStream(streamID uint64) uint64 {
	a.p.check()
	if a.out == nil {
		panic("no outgoing message, call MessageCreateData first")
	}
	return a.out.push(resource{kind: resourceTCPStream, node: a.vm.nodeID, id: streamID})
}

func (a *processABI) MessageTakeTCPStream(index uint64) (uint64, bool) {
	a.p.check()
	r, ok := a.in.take(resourceTCPStream, index)
	return r.id, ok
}

func (a *processABI) MessagePushTLSStream(streamID uint64) uint64 {
	a.p.check()
	if a.out == nil {
		panic("no outgoing message, call MessageCreateData first")
	}
	return a.out.push(resource{kind: resourceTLSStream, node: a.vm.nodeID, id: streamID})
}

func (a *processABI) MessageTakeTLSStream(index uint64) (uint64, bool) {
	a.p.check()
	r, ok := a.in.take(resourceTLSStream, index)
	return r.id, ok
}

func (a *processABI) MessageSend(processID uint64) {
	a.p.check()
	a.vm.deliver(processID, a.takeOut())
}

func (a *processABI) MessageSendReceiveSkipSearch(processID uint64, waitOnTag int64, timeoutMs uint64) uint32 {
	a.MessageSend(processID)
	return a.receive([]int64{waitOnTag}, timeoutMs)
}

func (a *processABI) MessageReceive(tags []int64, timeoutMs uint64) uint32 {
	return a.receive(append([]int64(nil), tags...), timeoutMs)
}

func (a *processABI) receive(tags []int64, timeoutMs uint64) uint32 {
	a.p.check()
	env, ok, closed := a.p.mailbox.WaitMatch(func(e envelope) bool { return e.matches(tags) }, chronos.FromMillis(timeoutMs))
	if closed != nil {
		a.p.check()
		panic(exitPanic{reason: exitreason.Killed})
	}
	if !ok {
		return host.Timeout
	}
	a.in = env.scratch()
	switch env.kind {
	case envLinkDied:
		return host.LinkDied
	case envProcessDied:
		return host.ProcessDied
	default:
		return host.DataMessage
	}
}

// ---- lunatic::process

func (a *processABI) ProcessSpawn(link int64, configID int64, moduleID int64, function string, params []byte) (uint64, bool) {
	a.p.check()
	if !a.p.config.canSpawnProcesses {
		return a.vm.errors.addf("process %d is not allowed to spawn processes", a.p.id), false
	}
	if moduleID != host.InheritModule && uint64(moduleID) != a.vm.moduleID {
		return a.vm.errors.addf("module %d not found", moduleID), false
	}
	cfg, err := a.spawnConfig(configID)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	fn, err := exportRunner(function, params)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	child, err := a.vm.spawn(a.p, link, cfg, fn)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return child.id, true
}

func (a *processABI) spawnConfig(configID int64) (processConfig, error) {
	if configID == host.InheritConfig {
		return a.p.config.clone(), nil
	}
	cfg, ok := a.vm.configs.snapshot(uint64(configID))
	if !ok {
		return processConfig{}, fmt.Errorf("config %d not found", configID)
	}
	return cfg, nil
}

func (a *processABI) ProcessThis() uint64 {
	a.p.check()
	return a.p.id
}

func (a *processABI) ProcessID(processID uint64) [16]byte {
	a.p.check()
	if p, ok := a.vm.lookup(processID); ok {
		return p.uuid
	}
	return [16]byte{}
}

func (a *processABI) ProcessExists(processID uint64) bool {
	a.p.check()
	_, ok := a.vm.lookup(processID)
	return ok
}

func (a *processABI) ProcessLink(tag int64, processID uint64) {
	a.p.check()
	a.p.signals.Enqueue(linkSignal{peer: processID, tag: tag})
	a.vm.send(processID, linkSignal{peer: a.p.id, tag: tag})
}

func (a *processABI) ProcessUnlink(processID uint64) {
	a.p.check()
	a.p.signals.Enqueue(unlinkSignal{peer: processID})
	a.vm.send(processID, unlinkSignal{peer: a.p.id})
}

func (a *processABI) ProcessKill(processID uint64) {
	a.p.check()
	a.vm.send(processID, killSignal{})
}

func (a *processABI) ProcessMonitor(processID uint64) {
	a.p.check()
	a.vm.send(processID, monitorSignal{watcher: a.p.id})
}

func (a *processABI) ProcessDemonitor(processID uint64) {
	a.p.check()
	a.vm.send(processID, demonitorSignal{watcher: a.p.id})
}

func (a *processABI) ProcessDieWhenLinkDies(trap bool) {
	a.p.check()
	a.p.dieWhenLinkDies.Store(trap)
}

func (a *processABI) ProcessSleepMs(ms uint64) {
	a.p.check()
	d := chronos.FromMillis(ms)
	if d < 0 {
		<-a.p.exited
	} else {
		select {
		case <-time.After(d):
		case <-a.p.exited:
		}
	}
	a.p.check()
}

func (a *processABI) ProcessCreateConfig() (uint64, bool) {
	a.p.check()
	if !a.p.config.canCreateConfigs {
		return a.vm.errors.addf("process %d is not allowed to create configs", a.p.id), false
	}
	return a.vm.configs.create(), true
}

func (a *processABI) ProcessDropConfig(configID uint64) {
	a.p.check()
	a.vm.configs.drop(configID)
}

func (a *processABI) ProcessConfigSetMaxMemory(configID uint64, maxMemory uint64) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.maxMemory = maxMemory })
}

func (a *processABI) ProcessConfigGetMaxMemory(configID uint64) (v uint64) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { v = c.maxMemory })
	return v
}

func (a *processABI) ProcessConfigSetMaxFuel(configID uint64, maxFuel uint64) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.maxFuel = maxFuel })
}

func (a *processABI) ProcessConfigGetMaxFuel(configID uint64) (v uint64) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { v = c.maxFuel })
	return v
}

func (a *processABI) ProcessConfigSetCanCompileModules(configID uint64, can bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.canCompileModules = can })
}

func (a *processABI) ProcessConfigCanCompileModules(configID uint64) (v bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { v = c.canCompileModules })
	return v
}

func (a *processABI) ProcessConfigSetCanCreateConfigs(configID uint64, can bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.canCreateConfigs = can })
}

func (a *processABI) ProcessConfigCanCreateConfigs(configID uint64) (v bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { v = c.canCreateConfigs })
	return v
}

func (a *processABI) ProcessConfigSetCanSpawnProcesses(configID uint64, can bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.canSpawnProcesses = can })
}

func (a *processABI) ProcessConfigCanSpawnProcesses(configID uint64) (v bool) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { v = c.canSpawnProcesses })
	return v
}

// ---- lunatic::registry

func (a *processABI) RegistryPut(name string, nodeID, processID uint64) {
	a.p.check()
	a.vm.registry.put(name, nodeID, processID)
}

func (a *processABI) RegistryGet(name string) (uint64, uint64, bool) {
	a.p.check()
	reg, ok := a.vm.registry.get(a.p, name)
	return reg.node, reg.id, ok
}

func (a *processABI) RegistryGetOrPutLater(name string) (uint64, uint64, bool) {
	a.p.check()
	reg, ok := a.vm.registry.getOrPutLater(a.p, name)
	return reg.node, reg.id, ok
}

func (a *processABI) RegistryRemove(name string) {
	a.p.check()
	a.vm.registry.remove(name)
}

// ---- lunatic::timer

func (a *processABI) TimerSendAfter(processID uint64, ms uint64) uint64 {
	a.p.check()
	msg := a.takeOut()
	d := chronos.FromMillis(ms)
	if d < 0 {
		d = time.Duration(1<<63 - 1)
	}
	return a.vm.timers.after(d, func() { a.vm.deliver(processID, msg) })
}

func (a *processABI) TimerCancel(timerID uint64) bool {
	a.p.check()
	return a.vm.timers.cancel(timerID)
}

// ---- lunatic::networking

func (a *processABI) Resolve(name string, timeoutMs uint64) ([]netip.AddrPort, uint64, bool) {
	a.p.check()
	addrs, err := resolve(name, timeoutMs)
	if err != nil {
		return nil, a.vm.errors.add(err), false
	}
	return addrs, 0, true
}

func (a *processABI) TCPBind(addr netip.AddrPort) (uint64, bool) {
	a.p.check()
	ln, err := net.ListenTCP("tcp", net.TCPAddrFromAddrPort(addr))
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return a.vm.net.addListener(&listener{tcp: ln}), true
}

func (a *processABI) TCPLocalAddr(listenerID uint64) (netip.AddrPort, uint64, bool) {
	a.p.check()
	return addrPort(a.vm.net.listener(listenerID, false).tcp.Addr()), 0, true
}

func (a *processABI) TCPAccept(listenerID uint64) (uint64, netip.AddrPort, bool) {
	a.p.check()
	return a.accept(a.vm.net.listener(listenerID, false))
}

func (a *processABI) accept(l *listener) (uint64, netip.AddrPort, bool) {
	conn, err := l.accept(a.p)
	if err != nil {
		return a.vm.errors.add(err), netip.AddrPort{}, false
	}
	return a.vm.net.addStream(newStream(conn)), addrPort(conn.RemoteAddr()), true
}

func (a *processABI) TCPConnect(addr netip.AddrPort, timeoutMs uint64) (uint64, bool) {
	a.p.check()
	conn, err := net.DialTimeout("tcp", addr.String(), max(chronos.FromMillis(timeoutMs), 0))
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return a.vm.net.addStream(newStream(conn)), true
}

func (a *processABI) TCPRead(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	a.p.check()
	return a.read(streamID, buf, timeoutMs)
}

func (a *processABI) read(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	n, timedOut, err := a.vm.net.stream(streamID).read(a.p, buf, timeoutMs)
	switch {
	case err != nil:
		return a.vm.errors.add(err), host.NetError
	case timedOut:
		return 0, host.NetTimeout
	default:
		return uint64(n), host.NetOK
	}
}

func (a *processABI) TCPWrite(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	a.p.check()
	return a.write(streamID, buf, timeoutMs)
}

func (a *processABI) write(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	n, timedOut, err := a.vm.net.stream(streamID).write(buf, timeoutMs)
	switch {
	case err != nil:
		return a.vm.errors.add(err), host.NetError
	case timedOut:
		return 0, host.NetTimeout
	default:
		return uint64(n), host.NetOK
	}
}

// Writes go straight to the socket, there is nothing to flush.
func (a *processABI) TCPFlush(streamID uint64) (uint64, bool) {
	a.p.check()
	a.vm.net.stream(streamID)
	return 0, true
}

func (a *processABI) TCPCloneStream(streamID uint64) uint64 {
	a.p.check()
	return a.vm.net.clone(streamID)
}

func (a *processABI) TCPDropStream(streamID uint64) {
	a.p.check()
	a.vm.net.dropStream(streamID)
}

func (a *processABI) TCPDropListener(listenerID uint64) {
	a.p.check()
	a.vm.net.dropListener(listenerID)
}

func (a *processABI) TLSBind(addr netip.AddrPort, certPEM, keyPEM []byte) (uint64, bool) {
	a.p.check()
	cfg, err := tlsServerConfig(certPEM, keyPEM)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	ln, err := net.ListenTCP("tcp", net.TCPAddrFromAddrPort(addr))
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return a.vm.net.addListener(&listener{tcp: ln, tlsConfig: cfg}), true
}

func (a *processABI) TLSLocalAddr(listenerID uint64) (netip.AddrPort, uint64, bool) {
	a.p.check()
	return addrPort(a.vm.net.listener(listenerID, true).tcp.Addr()), 0, true
}

func (a *processABI) TLSAccept(listenerID uint64) (uint64, netip.AddrPort, bool) {
	a.p.check()
	return a.accept(a.vm.net.listener(listenerID, true))
}

func (a *processABI) TLSConnect(hostname string, port uint16, timeoutMs uint64, rootCertsPEM []byte) (uint64, bool) {
	a.p.check()
	cfg, err := tlsClientConfig(hostname, rootCertsPEM)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	dialer := &net.Dialer{Timeout: max(chronos.FromMillis(timeoutMs), 0)}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(hostname, strconv.Itoa(int(port))), cfg)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return a.vm.net.addStream(newStream(conn)), true
}

func (a *processABI) TLSRead(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	a.p.check()
	return a.read(streamID, buf, timeoutMs)
}

func (a *processABI) TLSWrite(streamID uint64, buf []byte, timeoutMs uint64) (uint64, uint32) {
	a.p.check()
	return a.write(streamID, buf, timeoutMs)
}

func (a *processABI) TLSFlush(streamID uint64) (uint64, bool) {
	return a.TCPFlush(streamID)
}

func (a *processABI) TLSDropStream(streamID uint64) {
	a.TCPDropStream(streamID)
}

func (a *processABI) TLSDropListener(listenerID uint64) {
	a.TCPDropListener(listenerID)
}

// ---- lunatic::wasi

func (a *processABI) WasiConfigAddEnvironmentVariable(configID uint64, key, value string) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) {
		if c.env == nil {
			c.env = make(map[string]string)
		}
		c.env[key] = value
	})
}

func (a *processABI) WasiConfigAddCommandLineArgument(configID uint64, arg string) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.args = append(c.args, arg) })
}

func (a *processABI) WasiConfigPreopenDir(configID uint64, dir string) {
	a.p.check()
	a.vm.configs.update(configID, func(c *processConfig) { c.preopenDirs = append(c.preopenDirs, dir) })
}

// ---- lunatic::version

func (a *processABI) VersionMajor() uint32 { return versionMajor }
func (a *processABI) VersionMinor() uint32 { return versionMinor }
func (a *processABI) VersionPatch() uint32 { return versionPatch }

// ---- lunatic::metrics

func (a *processABI) MetricsMeter(name string) uint64 {
	a.p.check()
	return a.vm.metrics.meter(name)
}

func (a *processABI) MetricsMeterDrop(meterID uint64) {
	a.p.check()
	a.vm.metrics.dropMeter(meterID)
}

func (a *processABI) MetricsCounter(meterID uint64, name, description, unit string) uint64 {
	a.p.check()
	return a.vm.metrics.instrument(meterID, Counter, name, description, unit)
}

func (a *processABI) MetricsCounterDrop(counterID uint64) {
	a.p.check()
	a.vm.metrics.dropInstrument(counterID)
}

func (a *processABI) MetricsAdd(counterID uint64, value float64, attributes []byte) {
	a.p.check()
	a.vm.metrics.record(counterID, Counter, value, attributes)
}

func (a *processABI) MetricsUpDownCounter(meterID uint64, name, description, unit string) uint64 {
	a.p.check()
	return a.vm.metrics.instrument(meterID, UpDownCounter, name, description, unit)
}

func (a *processABI) MetricsUpDownCounterDrop(counterID uint64) {
	a.p.check()
	a.vm.metrics.dropInstrument(counterID)
}

func (a *processABI) MetricsUpDownCounterAdd(counterID uint64, value float64, attributes []byte) {
	a.p.check()
	a.vm.metrics.record(counterID, UpDownCounter, value, attributes)
}

func (a *processABI) MetricsHistogram(meterID uint64, name, description, unit string) uint64 {
	a.p.check()
	return a.vm.metrics.instrument(meterID, Histogram, name, description, unit)
}

func (a *processABI) MetricsHistogramDrop(histogramID uint64) {
	a.p.check()
	a.vm.metrics.dropInstrument(histogramID)
}

func (a *processABI) MetricsRecord(histogramID uint64, value float64, attributes []byte) {
	a.p.check()
	a.vm.metrics.record(histogramID, Histogram, value, attributes)
}

// ---- lunatic::distributed

func (a *processABI) DistributedNodeID() uint64 {
	a.p.check()
	return a.vm.nodeID
}

func (a *processABI) DistributedModuleID() uint64 {
	a.p.check()
	return a.vm.moduleID
}

func (a *processABI) DistributedNodesCount() uint32 {
	a.p.check()
	return uint32(len(a.vm.cluster.peers(a.vm.nodeID)))
}

func (a *processABI) DistributedGetNodes(buf []uint64) uint32 {
	a.p.check()
	return uint32(copy(buf, a.vm.cluster.peers(a.vm.nodeID)))
}

func (a *processABI) node(nodeID uint64) (*VM, bool) {
	if nodeID == a.vm.nodeID {
		return a.vm, true
	}
	return a.vm.cluster.node(nodeID)
}

func (a *processABI) DistributedSpawn(nodeID uint64, configID int64, moduleID uint64, function string, params []byte) (uint64, bool) {
	a.p.check()
	if !a.p.config.canSpawnProcesses {
		return a.vm.errors.addf("process %d is not allowed to spawn processes", a.p.id), false
	}
	target, ok := a.node(nodeID)
	if !ok {
		return a.vm.errors.addf("node %d not found", nodeID), false
	}
	if moduleID != target.moduleID {
		return a.vm.errors.addf("module %d not found on node %d", moduleID, nodeID), false
	}
	cfg, err := a.spawnConfig(configID)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	fn, err := exportRunner(function, params)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	child, err := target.spawn(nil, 0, cfg, fn)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	a.p.log.Debug("spawned on node", zap.Uint64("target_node", nodeID), zap.Uint64("child", child.id))
	return child.id, true
}

func (a *processABI) DistributedSend(nodeID, processID uint64) (uint64, bool) {
	a.p.check()
	msg := a.takeOut()
	target, ok := a.node(nodeID)
	if !ok {
		return a.vm.errors.addf("node %d not found", nodeID), false
	}
	if target != a.vm && msg.hasStreams() {
		return a.vm.errors.addf("streams cannot be sent to node %d", nodeID), false
	}
	target.deliver(processID, msg)
	return 0, true
}

// A message that cannot be delivered leaves the caller waiting until the timeout.
func (a *processABI) DistributedSendReceiveSkipSearch(nodeID, processID uint64, waitOnTag int64, timeoutMs uint64) uint32 {
	if errID, ok := a.DistributedSend(nodeID, processID); !ok {
		a.p.log.Debug("remote send failed", zap.Error(a.vm.errors.get(errID)))
		a.vm.errors.drop(errID)
	}
	return a.receive([]int64{waitOnTag}, timeoutMs)
}

// ---- lunatic::sqlite

func (a *processABI) SqliteOpen(path string) (uint64, bool) {
	a.p.check()
	id, err := a.vm.sqlite.open(path)
	if err != nil {
		return a.vm.errors.add(err), false
	}
	return id, true
}

func (a *processABI) SqliteExecute(connID uint64, query string) uint32 {
	a.p.check()
	if err := a.vm.sqlite.execute(connID, query); err != nil {
		return sqliteError
	}
	return 0
}

func (a *processABI) SqlitePrepare(connID uint64, query string) (uint64, bool) {
	a.p.check()
	return a.vm.sqlite.prepare(connID, query), true
}

func (a *processABI) SqliteBind(stmtID uint64, bindings []byte) uint32 {
	a.p.check()
	if err := a.vm.sqlite.bind(stmtID, bindings); err != nil {
		a.vm.sqlite.stmt(stmtID).conn.lastErr = err
		return sqliteError
	}
	return 0
}

func (a *processABI) SqliteStep(stmtID uint64) uint32 {
	a.p.check()
	res, err := a.vm.sqlite.step(stmtID)
	if err != nil {
		return sqliteError
	}
	return res
}

func (a *processABI) SqliteReadRow(stmtID uint64) []byte {
	a.p.check()
	return a.vm.sqlite.readRow(stmtID)
}

func (a *processABI) SqliteColumnNames(stmtID uint64) []byte {
	a.p.check()
	return a.vm.sqlite.columnNames(stmtID)
}

func (a *processABI) SqliteReset(stmtID uint64) {
	a.p.check()
	a.vm.sqlite.reset(stmtID)
}

func (a *processABI) SqliteFinalize(stmtID uint64) {
	a.p.check()
	a.vm.sqlite.finalize(stmtID)
}

func (a *processABI) SqliteChanges(connID uint64) uint32 {
	a.p.check()
	return uint32(a.vm.sqlite.conn(connID).changes)
}

func (a *processABI) SqliteLastError(connID uint64) string {
	a.p.check()
	if err := a.vm.sqlite.conn(connID).lastErr; err != nil {
		return err.Error()
	}
	return ""
}

func (a *processABI) SqliteClose(connID uint64) {
	a.p.check()
	a.vm.sqlite.closeConn(connID)
}

// ---- lunatic::trap

func (a *processABI) TrapCatch(entry, arg uint64) (result uint64) {
	a.p.check()
	export, ok := host.LookupExport(host.ExportCatchTrap)
	if !ok {
		panic("module does not export " + host.ExportCatchTrap)
	}
	defer func() {
		if r := recover(); r != nil {
			if ep, ok := r.(exitPanic); ok {
				panic(ep)
			}
			a.p.log.Debug("trap caught", zap.Any("panic", r))
			result = 0
		}
	}()
	return export(a, []host.Param{host.I64(int64(entry)), host.I64(int64(arg))})
}
