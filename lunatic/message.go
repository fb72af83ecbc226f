package lunatic

import (
	"fmt"
	"io"

	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// messageWriter appends to the host's outgoing message.
type messageWriter struct {
	inst *Instance
}

func (w messageWriter) Write(p []byte) (int, error) {
	return w.inst.abi.MessageWriteData(p), nil
}

// messageReader reads the last received message.
type messageReader struct {
	inst *Instance
}

func (r messageReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := r.inst.abi.MessageReadData(p)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// messageResources is the resource array of the current outgoing or incoming message.
type messageResources struct {
	inst *Instance
}

func (r messageResources) instance() *Instance {
	return r.inst
}

func (r messageResources) PushProcess(nodeID, processID uint64) uint64 {
	return r.inst.abi.MessagePushProcess(nodeID, processID)
}

func (r messageResources) TakeProcess(index uint64) (uint64, uint64, error) {
	node, id, ok := r.inst.abi.MessageTakeProcess(index)
	if !ok {
		return 0, 0, fmt.Errorf("%w: process at %d", serializer.ErrResourceIndex, index)
	}
	return node, id, nil
}

func (r messageResources) PushTCPStream(streamID uint64) uint64 {
	return r.inst.abi.MessagePushTCPStream(streamID)
}

func (r messageResources) TakeTCPStream(index uint64) (uint64, error) {
	id, ok := r.inst.abi.MessageTakeTCPStream(index)
	if !ok {
		return 0, fmt.Errorf("%w: tcp stream at %d", serializer.ErrResourceIndex, index)
	}
	return id, nil
}

func (r messageResources) PushTLSStream(streamID uint64) uint64 {
	return r.inst.abi.MessagePushTLSStream(streamID)
}

func (r messageResources) TakeTLSStream(index uint64) (uint64, error) {
	id, ok := r.inst.abi.MessageTakeTLSStream(index)
	if !ok {
		return 0, fmt.Errorf("%w: tls stream at %d", serializer.ErrResourceIndex, index)
	}
	return id, nil
}

// InstanceOf returns the instance a resource array belongs to. Resource types
// outside this package use it to bind decoded handles to the receiving process.
func InstanceOf(res serializer.Resources) (*Instance, bool) {
	r, ok := res.(interface{ instance() *Instance })
	if !ok {
		return nil, false
	}
	return r.instance(), true
}

// prepareMessage starts an outgoing message with [tag] and encodes [v] into it.
// An encode failure is a programming error and panics.
func prepareMessage(inst *Instance, tag Tag, v any, s serializer.Serializer) {
	inst.abi.MessageCreateData(int64(tag), 0)
	if err := s.Encode(messageWriter{inst}, v, messageResources{inst}); err != nil {
		panic(fmt.Sprintf("lunatic: encode %T with %s: %v", v, s.ID(), err))
	}
}

// sendPrepared sends the outgoing message to a local or remote process.
func sendPrepared(inst *Instance, nodeID, processID uint64) {
	if nodeID == inst.NodeID() {
		inst.abi.MessageSend(processID)
		return
	}
	if errID, ok := inst.abi.DistributedSend(nodeID, processID); !ok {
		err := newLunaticError(inst, errID)
		defer err.Drop()
		panic(fmt.Sprintf("lunatic: send to node %d: %v", nodeID, err))
	}
}

// sendReceive sends the outgoing message and waits for the reply tagged [tag]
// without scanning messages that were already in the mailbox.
func sendReceive(inst *Instance, nodeID, processID uint64, tag Tag, timeoutMs uint64) uint32 {
	if nodeID == inst.NodeID() {
		return inst.abi.MessageSendReceiveSkipSearch(processID, int64(tag), timeoutMs)
	}
	return inst.abi.DistributedSendReceiveSkipSearch(nodeID, processID, int64(tag), timeoutMs)
}

// decodeMessage reads the last received message into a new M.
func decodeMessage[M any](inst *Instance, s serializer.Serializer) (M, error) {
	var m M
	err := s.Decode(messageReader{inst}, &m, messageResources{inst})
	return m, err
}
