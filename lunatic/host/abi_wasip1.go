//go:build wasip1

package host

import (
	"net/netip"
	"unsafe"
)

//go:wasmimport lunatic::error string_size
func errorStringSize(id uint64) uint32

//go:wasmimport lunatic::error to_string
func errorToString(id uint64, buf unsafe.Pointer)

//go:wasmimport lunatic::error drop
func errorDrop(id uint64)

//go:wasmimport lunatic::message create_data
func messageCreateData(tag int64, capacity uint64)

//go:wasmimport lunatic::message write_data
func messageWriteData(data unsafe.Pointer, dataLen uint32) uint32

//go:wasmimport lunatic::message read_data
func messageReadData(data unsafe.Pointer, dataLen uint32) uint32

//go:wasmimport lunatic::message seek_data
func messageSeekData(pos uint64)

//go:wasmimport lunatic::message get_tag
func messageGetTag() int64

//go:wasmimport lunatic::message data_size
func messageDataSize() uint64

//go:wasmimport lunatic::message push_process
func messagePushProcess(nodeID, processID uint64) uint64

//go:wasmimport lunatic::message take_process
func messageTakeProcess(index uint64, nodeID, processID unsafe.Pointer) uint32

//go:wasmimport lunatic::message push_tcp_stream
func messagePushTCPStream(id uint64) uint64

//go:wasmimport lunatic::message take_tcp_stream
func messageTakeTCPStream(index uint64, id unsafe.Pointer) uint32

//go:wasmimport lunatic::message push_tls_stream
func messagePushTLSStream(id uint64) uint64

//go:wasmimport lunatic::message take_tls_stream
func messageTakeTLSStream(index uint64, id unsafe.Pointer) uint32

//go:wasmimport lunatic::message send
func messageSend(processID uint64)

//go:wasmimport lunatic::message send_receive_skip_search
func messageSendReceiveSkipSearch(processID uint64, waitOnTag int64, timeoutMs uint64) uint32

//go:wasmimport lunatic::message receive
func messageReceive(tags unsafe.Pointer, tagsLen uint32, timeoutMs uint64) uint32

//go:wasmimport lunatic::process spawn
func processSpawn(link, configID, moduleID int64, fn unsafe.Pointer, fnLen uint32, params unsafe.Pointer, paramsLen uint32, id unsafe.Pointer) uint32

//go:wasmimport lunatic::process this
func processThis() uint64

//go:wasmimport lunatic::process id
func processID(processID uint64, uuid unsafe.Pointer)

//go:wasmimport lunatic::process exists
func processExists(processID uint64) int32

//go:wasmimport lunatic::process link
func processLink(tag int64, processID uint64)

//go:wasmimport lunatic::process unlink
func processUnlink(processID uint64)

//go:wasmimport lunatic::process kill
func processKill(processID uint64)

//go:wasmimport lunatic::process monitor
func processMonitor(processID uint64)

//go:wasmimport lunatic::process stop_monitoring
func processDemonitor(processID uint64)

//go:wasmimport lunatic::process die_when_link_dies
func processDieWhenLinkDies(trap uint32)

//go:wasmimport lunatic::process sleep_ms
func processSleepMs(ms uint64)

//go:wasmimport lunatic::process create_config
func processCreateConfig() int64

//go:wasmimport lunatic::process drop_config
func processDropConfig(configID uint64)

//go:wasmimport lunatic::process config_set_max_memory
func processConfigSetMaxMemory(configID, maxMemory uint64)

//go:wasmimport lunatic::process config_get_max_memory
func processConfigGetMaxMemory(configID uint64) uint64

//go:wasmimport lunatic::process config_set_max_fuel
func processConfigSetMaxFuel(configID, maxFuel uint64)

//go:wasmimport lunatic::process config_get_max_fuel
func processConfigGetMaxFuel(configID uint64) uint64

//go:wasmimport lunatic::process config_set_can_compile_modules
func processConfigSetCanCompileModules(configID uint64, can uint32)

//go:wasmimport lunatic::process config_can_compile_modules
func processConfigCanCompileModules(configID uint64) uint32

//go:wasmimport lunatic::process config_set_can_create_configs
func processConfigSetCanCreateConfigs(configID uint64, can uint32)

//go:wasmimport lunatic::process config_can_create_configs
func processConfigCanCreateConfigs(configID uint64) uint32

//go:wasmimport lunatic::process config_set_can_spawn_processes
func processConfigSetCanSpawnProcesses(configID uint64, can uint32)

//go:wasmimport lunatic::process config_can_spawn_processes
func processConfigCanSpawnProcesses(configID uint64) uint32

//go:wasmimport lunatic::registry put
func registryPut(name unsafe.Pointer, nameLen uint32, nodeID, processID uint64)

//go:wasmimport lunatic::registry get
func registryGet(name unsafe.Pointer, nameLen uint32, nodeID, processID unsafe.Pointer) uint32

//go:wasmimport lunatic::registry get_or_put_later
func registryGetOrPutLater(name unsafe.Pointer, nameLen uint32, nodeID, processID unsafe.Pointer) uint32

//go:wasmimport lunatic::registry remove
func registryRemove(name unsafe.Pointer, nameLen uint32)

//go:wasmimport lunatic::timer send_after
func timerSendAfter(processID, ms uint64) uint64

//go:wasmimport lunatic::timer cancel_timer
func timerCancel(timerID uint64) uint32

//go:wasmimport lunatic::networking resolve
func netResolve(name unsafe.Pointer, nameLen uint32, timeoutMs uint64, id unsafe.Pointer) uint32

//go:wasmimport lunatic::networking resolve_next
func netResolveNext(iter uint64, addrType, addr, port, flowInfo, scopeID unsafe.Pointer) uint32

//go:wasmimport lunatic::networking drop_dns_iterator
func netDropDNSIterator(iter uint64)

//go:wasmimport lunatic::networking tcp_bind
func tcpBind(addrType uint32, addr unsafe.Pointer, port, flowInfo, scopeID uint32, id unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_local_addr
func tcpLocalAddr(listenerID uint64, iter unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_accept
func tcpAccept(listenerID uint64, id, peerIter unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_connect
func tcpConnect(addrType uint32, addr unsafe.Pointer, port, flowInfo, scopeID uint32, timeoutMs uint64, id unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_read
func tcpRead(streamID uint64, buf unsafe.Pointer, bufLen uint32, timeoutMs uint64, value unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_write
func tcpWrite(streamID uint64, buf unsafe.Pointer, bufLen uint32, timeoutMs uint64, value unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tcp_flush
func tcpFlush(streamID uint64, errID unsafe.Pointer) uint32

//go:wasmimport lunatic::networking clone_tcp_stream
func tcpCloneStream(streamID uint64) uint64

//go:wasmimport lunatic::networking drop_tcp_stream
func tcpDropStream(streamID uint64)

//go:wasmimport lunatic::networking drop_tcp_listener
func tcpDropListener(listenerID uint64)

//go:wasmimport lunatic::networking tls_bind
func tlsBind(addrType uint32, addr unsafe.Pointer, port, flowInfo, scopeID uint32, id unsafe.Pointer, cert unsafe.Pointer, certLen uint32, key unsafe.Pointer, keyLen uint32) uint32

//go:wasmimport lunatic::networking tls_local_addr
func tlsLocalAddr(listenerID uint64, iter unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tls_accept
func tlsAccept(listenerID uint64, id, peerIter unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tls_connect
func tlsConnect(host unsafe.Pointer, hostLen uint32, port uint32, timeoutMs uint64, id unsafe.Pointer, certs unsafe.Pointer, certsLen uint32) uint32

//go:wasmimport lunatic::networking tls_read
func tlsRead(streamID uint64, buf unsafe.Pointer, bufLen uint32, timeoutMs uint64, value unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tls_write
func tlsWrite(streamID uint64, buf unsafe.Pointer, bufLen uint32, timeoutMs uint64, value unsafe.Pointer) uint32

//go:wasmimport lunatic::networking tls_flush
func tlsFlush(streamID uint64, errID unsafe.Pointer) uint32

//go:wasmimport lunatic::networking drop_tls_stream
func tlsDropStream(streamID uint64)

//go:wasmimport lunatic::networking drop_tls_listener
func tlsDropListener(listenerID uint64)

//go:wasmimport lunatic::wasi config_add_environment_variable
func wasiConfigAddEnvironmentVariable(configID uint64, key unsafe.Pointer, keyLen uint32, value unsafe.Pointer, valueLen uint32)

//go:wasmimport lunatic::wasi config_add_command_line_argument
func wasiConfigAddCommandLineArgument(configID uint64, arg unsafe.Pointer, argLen uint32)

//go:wasmimport lunatic::wasi config_preopen_dir
func wasiConfigPreopenDir(configID uint64, dir unsafe.Pointer, dirLen uint32)

//go:wasmimport lunatic::version major
func versionMajor() uint32

//go:wasmimport lunatic::version minor
func versionMinor() uint32

//go:wasmimport lunatic::version patch
func versionPatch() uint32

//go:wasmimport lunatic::metrics meter
func metricsMeter(name unsafe.Pointer, nameLen uint32) uint64

//go:wasmimport lunatic::metrics meter_drop
func metricsMeterDrop(meterID uint64)

//go:wasmimport lunatic::metrics counter
func metricsCounter(meterID uint64, name unsafe.Pointer, nameLen uint32, desc unsafe.Pointer, descLen uint32, unit unsafe.Pointer, unitLen uint32) uint64

//go:wasmimport lunatic::metrics counter_drop
func metricsCounterDrop(counterID uint64)

//go:wasmimport lunatic::metrics add
func metricsAdd(counterID uint64, value float64, attrs unsafe.Pointer, attrsLen uint32)

//go:wasmimport lunatic::metrics up_down_counter
func metricsUpDownCounter(meterID uint64, name unsafe.Pointer, nameLen uint32, desc unsafe.Pointer, descLen uint32, unit unsafe.Pointer, unitLen uint32) uint64

//go:wasmimport lunatic::metrics up_down_counter_drop
func metricsUpDownCounterDrop(counterID uint64)

//go:wasmimport lunatic::metrics up_down_counter_add
func metricsUpDownCounterAdd(counterID uint64, value float64, attrs unsafe.Pointer, attrsLen uint32)

//go:wasmimport lunatic::metrics histogram
func metricsHistogram(meterID uint64, name unsafe.Pointer, nameLen uint32, desc unsafe.Pointer, descLen uint32, unit unsafe.Pointer, unitLen uint32) uint64

//go:wasmimport lunatic::metrics histogram_drop
func metricsHistogramDrop(histogramID uint64)

//go:wasmimport lunatic::metrics record
func metricsRecord(histogramID uint64, value float64, attrs unsafe.Pointer, attrsLen uint32)

//go:wasmimport lunatic::distributed node_id
func distributedNodeID() uint64

//go:wasmimport lunatic::distributed module_id
func distributedModuleID() uint64

//go:wasmimport lunatic::distributed nodes_count
func distributedNodesCount() uint32

//go:wasmimport lunatic::distributed get_nodes
func distributedGetNodes(buf unsafe.Pointer, bufLen uint32) uint32

//go:wasmimport lunatic::distributed spawn
func distributedSpawn(nodeID uint64, configID int64, moduleID uint64, fn unsafe.Pointer, fnLen uint32, params unsafe.Pointer, paramsLen uint32, id unsafe.Pointer) uint32

//go:wasmimport lunatic::distributed send
func distributedSend(nodeID, processID uint64) uint32

//go:wasmimport lunatic::distributed send_receive_skip_search
func distributedSendReceiveSkipSearch(nodeID, processID uint64, waitOnTag int64, timeoutMs uint64) uint32

//go:wasmimport lunatic::sqlite open
func sqliteOpen(path unsafe.Pointer, pathLen uint32, connID unsafe.Pointer) uint32

//go:wasmimport lunatic::sqlite execute
func sqliteExecute(connID uint64, query unsafe.Pointer, queryLen uint32) uint32

//go:wasmimport lunatic::sqlite query_prepare
func sqlitePrepare(connID uint64, query unsafe.Pointer, queryLen uint32, stmtID unsafe.Pointer) uint32

//go:wasmimport lunatic::sqlite bind_value
func sqliteBind(stmtID uint64, data unsafe.Pointer, dataLen uint32) uint32

//go:wasmimport lunatic::sqlite sqlite3_step
func sqliteStep(stmtID uint64) uint32

//go:wasmimport lunatic::sqlite read_row
func sqliteReadRow(stmtID uint64, outLen unsafe.Pointer) uint32

//go:wasmimport lunatic::sqlite column_names
func sqliteColumnNames(stmtID uint64, outLen unsafe.Pointer) uint32

//go:wasmimport lunatic::sqlite statement_reset
func sqliteReset(stmtID uint64)

//go:wasmimport lunatic::sqlite sqlite3_finalize
func sqliteFinalize(stmtID uint64)

//go:wasmimport lunatic::sqlite sqlite3_changes
func sqliteChanges(connID uint64) uint32

//go:wasmimport lunatic::sqlite last_error
func sqliteLastError(connID uint64, outLen unsafe.Pointer) uint32

//go:wasmimport lunatic::sqlite close
func sqliteClose(connID uint64)

//go:wasmimport lunatic::trap catch
func trapCatch(entry, arg uint64) uint64

// Wasm returns the ABI of the lunatic host the module is running in.
func Wasm() ABI {
	return wasmABI{}
}

type wasmABI struct{}

func bptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func sptr(s string) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.StringData(s)), uint32(len(s))
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (wasmABI) ErrorStringSize(id uint64) uint32 { return errorStringSize(id) }

func (wasmABI) ErrorToString(id uint64, buf []byte) { errorToString(id, bptr(buf)) }

func (wasmABI) ErrorDrop(id uint64) { errorDrop(id) }

func (wasmABI) MessageCreateData(tag int64, capacity uint64) { messageCreateData(tag, capacity) }

func (wasmABI) MessageWriteData(p []byte) int {
	return int(messageWriteData(bptr(p), uint32(len(p))))
}

func (wasmABI) MessageReadData(p []byte) int {
	return int(messageReadData(bptr(p), uint32(len(p))))
}

func (wasmABI) MessageSeekData(pos uint64) { messageSeekData(pos) }

func (wasmABI) MessageGetTag() int64 { return messageGetTag() }

func (wasmABI) MessageDataSize() uint64 { return messageDataSize() }

func (wasmABI) MessagePushProcess(nodeID, processID uint64) uint64 {
	return messagePushProcess(nodeID, processID)
}

func (wasmABI) MessageTakeProcess(index uint64) (nodeID, processID uint64, ok bool) {
	r := messageTakeProcess(index, unsafe.Pointer(&nodeID), unsafe.Pointer(&processID))
	return nodeID, processID, r == 0
}

func (wasmABI) MessagePushTCPStream(id uint64) uint64 { return messagePushTCPStream(id) }

func (wasmABI) MessageTakeTCPStream(index uint64) (id uint64, ok bool) {
	r := messageTakeTCPStream(index, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) MessagePushTLSStream(id uint64) uint64 { return messagePushTLSStream(id) }

func (wasmABI) MessageTakeTLSStream(index uint64) (id uint64, ok bool) {
	r := messageTakeTLSStream(index, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) MessageSend(processID uint64) { messageSend(processID) }

func (wasmABI) MessageSendReceiveSkipSearch(processID uint64, waitOnTag int64, timeoutMs uint64) uint32 {
	return messageSendReceiveSkipSearch(processID, waitOnTag, timeoutMs)
}

func (wasmABI) MessageReceive(tags []int64, timeoutMs uint64) uint32 {
	var p unsafe.Pointer
	if len(tags) > 0 {
		p = unsafe.Pointer(&tags[0])
	}
	return messageReceive(p, uint32(len(tags)), timeoutMs)
}

func (wasmABI) ProcessSpawn(link, configID, moduleID int64, function string, params []byte) (id uint64, ok bool) {
	fp, fl := sptr(function)
	r := processSpawn(link, configID, moduleID, fp, fl, bptr(params), uint32(len(params)), unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) ProcessThis() uint64 { return processThis() }

func (wasmABI) ProcessID(pid uint64) (uuid [16]byte) {
	processID(pid, unsafe.Pointer(&uuid))
	return uuid
}

func (wasmABI) ProcessExists(pid uint64) bool { return processExists(pid) != 0 }

func (wasmABI) ProcessLink(tag int64, pid uint64) { processLink(tag, pid) }

func (wasmABI) ProcessUnlink(pid uint64) { processUnlink(pid) }

func (wasmABI) ProcessKill(pid uint64) { processKill(pid) }

func (wasmABI) ProcessMonitor(pid uint64) { processMonitor(pid) }

func (wasmABI) ProcessDemonitor(pid uint64) { processDemonitor(pid) }

func (wasmABI) ProcessDieWhenLinkDies(trap bool) { processDieWhenLinkDies(b2u(trap)) }

func (wasmABI) ProcessSleepMs(ms uint64) { processSleepMs(ms) }

func (wasmABI) ProcessCreateConfig() (uint64, bool) {
	id := processCreateConfig()
	return uint64(id), id >= 0
}

func (wasmABI) ProcessDropConfig(id uint64) { processDropConfig(id) }

func (wasmABI) ProcessConfigSetMaxMemory(id, v uint64) { processConfigSetMaxMemory(id, v) }

func (wasmABI) ProcessConfigGetMaxMemory(id uint64) uint64 { return processConfigGetMaxMemory(id) }

func (wasmABI) ProcessConfigSetMaxFuel(id, v uint64) { processConfigSetMaxFuel(id, v) }

func (wasmABI) ProcessConfigGetMaxFuel(id uint64) uint64 { return processConfigGetMaxFuel(id) }

func (wasmABI) ProcessConfigSetCanCompileModules(id uint64, can bool) {
	processConfigSetCanCompileModules(id, b2u(can))
}

func (wasmABI) ProcessConfigCanCompileModules(id uint64) bool {
	return processConfigCanCompileModules(id) != 0
}

func (wasmABI) ProcessConfigSetCanCreateConfigs(id uint64, can bool) {
	processConfigSetCanCreateConfigs(id, b2u(can))
}

func (wasmABI) ProcessConfigCanCreateConfigs(id uint64) bool {
	return processConfigCanCreateConfigs(id) != 0
}

func (wasmABI) ProcessConfigSetCanSpawnProcesses(id uint64, can bool) {
	processConfigSetCanSpawnProcesses(id, b2u(can))
}

func (wasmABI) ProcessConfigCanSpawnProcesses(id uint64) bool {
	return processConfigCanSpawnProcesses(id) != 0
}

func (wasmABI) RegistryPut(name string, nodeID, processID uint64) {
	p, l := sptr(name)
	registryPut(p, l, nodeID, processID)
}

func (wasmABI) RegistryGet(name string) (nodeID, processID uint64, found bool) {
	p, l := sptr(name)
	r := registryGet(p, l, unsafe.Pointer(&nodeID), unsafe.Pointer(&processID))
	return nodeID, processID, r == 0
}

func (wasmABI) RegistryGetOrPutLater(name string) (nodeID, processID uint64, found bool) {
	p, l := sptr(name)
	r := registryGetOrPutLater(p, l, unsafe.Pointer(&nodeID), unsafe.Pointer(&processID))
	return nodeID, processID, r == 0
}

func (wasmABI) RegistryRemove(name string) {
	p, l := sptr(name)
	registryRemove(p, l)
}

func (wasmABI) TimerSendAfter(pid, ms uint64) uint64 { return timerSendAfter(pid, ms) }

func (wasmABI) TimerCancel(id uint64) bool { return timerCancel(id) != 0 }

// addrParts splits [addr] into the (type, bytes, port, flow info, scope id) form the host uses.
func addrParts(addr netip.AddrPort) (uint32, []byte, uint32) {
	a := addr.Addr()
	if a.Is4() {
		b := a.As4()
		return 4, b[:], uint32(addr.Port())
	}
	b := a.As16()
	return 6, b[:], uint32(addr.Port())
}

func drainDNS(iter uint64) []netip.AddrPort {
	defer netDropDNSIterator(iter)
	var out []netip.AddrPort
	for {
		var addrType, flowInfo, scopeID uint32
		var port uint16
		var addr [16]byte
		if netResolveNext(iter, unsafe.Pointer(&addrType), unsafe.Pointer(&addr), unsafe.Pointer(&port),
			unsafe.Pointer(&flowInfo), unsafe.Pointer(&scopeID)) != 0 {
			return out
		}
		if addrType == 4 {
			out = append(out, netip.AddrPortFrom(netip.AddrFrom4([4]byte(addr[:4])), port))
		} else {
			out = append(out, netip.AddrPortFrom(netip.AddrFrom16(addr), port))
		}
	}
}

func (wasmABI) Resolve(name string, timeoutMs uint64) ([]netip.AddrPort, uint64, bool) {
	p, l := sptr(name)
	var id uint64
	if netResolve(p, l, timeoutMs, unsafe.Pointer(&id)) != 0 {
		return nil, id, false
	}
	return drainDNS(id), 0, true
}

func (wasmABI) TCPBind(addr netip.AddrPort) (id uint64, ok bool) {
	t, b, port := addrParts(addr)
	r := tcpBind(t, bptr(b), port, 0, 0, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) TCPLocalAddr(listenerID uint64) (netip.AddrPort, uint64, bool) {
	var id uint64
	if tcpLocalAddr(listenerID, unsafe.Pointer(&id)) != 0 {
		return netip.AddrPort{}, id, false
	}
	addrs := drainDNS(id)
	if len(addrs) == 0 {
		return netip.AddrPort{}, 0, false
	}
	return addrs[0], 0, true
}

func (wasmABI) TCPAccept(listenerID uint64) (uint64, netip.AddrPort, bool) {
	var id, iter uint64
	if tcpAccept(listenerID, unsafe.Pointer(&id), unsafe.Pointer(&iter)) != 0 {
		return id, netip.AddrPort{}, false
	}
	var peer netip.AddrPort
	if addrs := drainDNS(iter); len(addrs) > 0 {
		peer = addrs[0]
	}
	return id, peer, true
}

func (wasmABI) TCPConnect(addr netip.AddrPort, timeoutMs uint64) (id uint64, ok bool) {
	t, b, port := addrParts(addr)
	r := tcpConnect(t, bptr(b), port, 0, 0, timeoutMs, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) TCPRead(streamID uint64, buf []byte, timeoutMs uint64) (v uint64, r uint32) {
	r = tcpRead(streamID, bptr(buf), uint32(len(buf)), timeoutMs, unsafe.Pointer(&v))
	return v, r
}

func (wasmABI) TCPWrite(streamID uint64, buf []byte, timeoutMs uint64) (v uint64, r uint32) {
	r = tcpWrite(streamID, bptr(buf), uint32(len(buf)), timeoutMs, unsafe.Pointer(&v))
	return v, r
}

func (wasmABI) TCPFlush(streamID uint64) (errID uint64, ok bool) {
	r := tcpFlush(streamID, unsafe.Pointer(&errID))
	return errID, r == 0
}

func (wasmABI) TCPCloneStream(id uint64) uint64 { return tcpCloneStream(id) }

func (wasmABI) TCPDropStream(id uint64) { tcpDropStream(id) }

func (wasmABI) TCPDropListener(id uint64) { tcpDropListener(id) }

func (wasmABI) TLSBind(addr netip.AddrPort, certPEM, keyPEM []byte) (id uint64, ok bool) {
	t, b, port := addrParts(addr)
	r := tlsBind(t, bptr(b), port, 0, 0, unsafe.Pointer(&id),
		bptr(certPEM), uint32(len(certPEM)), bptr(keyPEM), uint32(len(keyPEM)))
	return id, r == 0
}

func (wasmABI) TLSLocalAddr(listenerID uint64) (netip.AddrPort, uint64, bool) {
	var id uint64
	if tlsLocalAddr(listenerID, unsafe.Pointer(&id)) != 0 {
		return netip.AddrPort{}, id, false
	}
	addrs := drainDNS(id)
	if len(addrs) == 0 {
		return netip.AddrPort{}, 0, false
	}
	return addrs[0], 0, true
}

func (wasmABI) TLSAccept(listenerID uint64) (uint64, netip.AddrPort, bool) {
	var id, iter uint64
	if tlsAccept(listenerID, unsafe.Pointer(&id), unsafe.Pointer(&iter)) != 0 {
		return id, netip.AddrPort{}, false
	}
	var peer netip.AddrPort
	if addrs := drainDNS(iter); len(addrs) > 0 {
		peer = addrs[0]
	}
	return id, peer, true
}

func (wasmABI) TLSConnect(host string, port uint16, timeoutMs uint64, rootCertsPEM []byte) (id uint64, ok bool) {
	p, l := sptr(host)
	r := tlsConnect(p, l, uint32(port), timeoutMs, unsafe.Pointer(&id), bptr(rootCertsPEM), uint32(len(rootCertsPEM)))
	return id, r == 0
}

func (wasmABI) TLSRead(streamID uint64, buf []byte, timeoutMs uint64) (v uint64, r uint32) {
	r = tlsRead(streamID, bptr(buf), uint32(len(buf)), timeoutMs, unsafe.Pointer(&v))
	return v, r
}

func (wasmABI) TLSWrite(streamID uint64, buf []byte, timeoutMs uint64) (v uint64, r uint32) {
	r = tlsWrite(streamID, bptr(buf), uint32(len(buf)), timeoutMs, unsafe.Pointer(&v))
	return v, r
}

func (wasmABI) TLSFlush(streamID uint64) (errID uint64, ok bool) {
	r := tlsFlush(streamID, unsafe.Pointer(&errID))
	return errID, r == 0
}

func (wasmABI) TLSDropStream(id uint64) { tlsDropStream(id) }

func (wasmABI) TLSDropListener(id uint64) { tlsDropListener(id) }

func (wasmABI) WasiConfigAddEnvironmentVariable(configID uint64, key, value string) {
	kp, kl := sptr(key)
	vp, vl := sptr(value)
	wasiConfigAddEnvironmentVariable(configID, kp, kl, vp, vl)
}

func (wasmABI) WasiConfigAddCommandLineArgument(configID uint64, arg string) {
	p, l := sptr(arg)
	wasiConfigAddCommandLineArgument(configID, p, l)
}

func (wasmABI) WasiConfigPreopenDir(configID uint64, dir string) {
	p, l := sptr(dir)
	wasiConfigPreopenDir(configID, p, l)
}

func (wasmABI) VersionMajor() uint32 { return versionMajor() }

func (wasmABI) VersionMinor() uint32 { return versionMinor() }

func (wasmABI) VersionPatch() uint32 { return versionPatch() }

func (wasmABI) MetricsMeter(name string) uint64 {
	p, l := sptr(name)
	return metricsMeter(p, l)
}

func (wasmABI) MetricsMeterDrop(id uint64) { metricsMeterDrop(id) }

func (wasmABI) MetricsCounter(meterID uint64, name, description, unit string) uint64 {
	np, nl := sptr(name)
	dp, dl := sptr(description)
	up, ul := sptr(unit)
	return metricsCounter(meterID, np, nl, dp, dl, up, ul)
}

func (wasmABI) MetricsCounterDrop(id uint64) { metricsCounterDrop(id) }

func (wasmABI) MetricsAdd(id uint64, value float64, attrs []byte) {
	metricsAdd(id, value, bptr(attrs), uint32(len(attrs)))
}

func (wasmABI) MetricsUpDownCounter(meterID uint64, name, description, unit string) uint64 {
	np, nl := sptr(name)
	dp, dl := sptr(description)
	up, ul := sptr(unit)
	return metricsUpDownCounter(meterID, np, nl, dp, dl, up, ul)
}

func (wasmABI) MetricsUpDownCounterDrop(id uint64) { metricsUpDownCounterDrop(id) }

func (wasmABI) MetricsUpDownCounterAdd(id uint64, value float64, attrs []byte) {
	metricsUpDownCounterAdd(id, value, bptr(attrs), uint32(len(attrs)))
}

func (wasmABI) MetricsHistogram(meterID uint64, name, description, unit string) uint64 {
	np, nl := sptr(name)
	dp, dl := sptr(description)
	up, ul := sptr(unit)
	return metricsHistogram(meterID, np, nl, dp, dl, up, ul)
}

func (wasmABI) MetricsHistogramDrop(id uint64) { metricsHistogramDrop(id) }

func (wasmABI) MetricsRecord(id uint64, value float64, attrs []byte) {
	metricsRecord(id, value, bptr(attrs), uint32(len(attrs)))
}

func (wasmABI) DistributedNodeID() uint64 { return distributedNodeID() }

func (wasmABI) DistributedModuleID() uint64 { return distributedModuleID() }

func (wasmABI) DistributedNodesCount() uint32 { return distributedNodesCount() }

func (wasmABI) DistributedGetNodes(buf []uint64) uint32 {
	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}
	return distributedGetNodes(p, uint32(len(buf)))
}

func (wasmABI) DistributedSpawn(nodeID uint64, configID int64, moduleID uint64, function string, params []byte) (id uint64, ok bool) {
	fp, fl := sptr(function)
	r := distributedSpawn(nodeID, configID, moduleID, fp, fl, bptr(params), uint32(len(params)), unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) DistributedSend(nodeID, processID uint64) (uint64, bool) {
	r := distributedSend(nodeID, processID)
	return uint64(r), r == 0
}

func (wasmABI) DistributedSendReceiveSkipSearch(nodeID, processID uint64, waitOnTag int64, timeoutMs uint64) uint32 {
	return distributedSendReceiveSkipSearch(nodeID, processID, waitOnTag, timeoutMs)
}

func (wasmABI) SqliteOpen(path string) (id uint64, ok bool) {
	p, l := sptr(path)
	r := sqliteOpen(p, l, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) SqliteExecute(connID uint64, query string) uint32 {
	p, l := sptr(query)
	return sqliteExecute(connID, p, l)
}

func (wasmABI) SqlitePrepare(connID uint64, query string) (id uint64, ok bool) {
	p, l := sptr(query)
	r := sqlitePrepare(connID, p, l, unsafe.Pointer(&id))
	return id, r == 0
}

func (wasmABI) SqliteBind(stmtID uint64, bindings []byte) uint32 {
	return sqliteBind(stmtID, bptr(bindings), uint32(len(bindings)))
}

func (wasmABI) SqliteStep(stmtID uint64) uint32 { return sqliteStep(stmtID) }

func (wasmABI) SqliteReadRow(stmtID uint64) []byte {
	var n uint32
	ptr := sqliteReadRow(stmtID, unsafe.Pointer(&n))
	return reclaim(ptr, n)
}

func (wasmABI) SqliteColumnNames(stmtID uint64) []byte {
	var n uint32
	ptr := sqliteColumnNames(stmtID, unsafe.Pointer(&n))
	return reclaim(ptr, n)
}

func (wasmABI) SqliteReset(stmtID uint64) { sqliteReset(stmtID) }

func (wasmABI) SqliteFinalize(stmtID uint64) { sqliteFinalize(stmtID) }

func (wasmABI) SqliteChanges(connID uint64) uint32 { return sqliteChanges(connID) }

func (wasmABI) SqliteLastError(connID uint64) string {
	var n uint32
	ptr := sqliteLastError(connID, unsafe.Pointer(&n))
	return string(reclaim(ptr, n))
}

func (wasmABI) SqliteClose(connID uint64) { sqliteClose(connID) }

func (wasmABI) TrapCatch(entry, arg uint64) uint64 { return trapCatch(entry, arg) }
