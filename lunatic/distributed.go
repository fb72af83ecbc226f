package lunatic

// NodeID returns the id of the node the caller runs on.
func NodeID(inst *Instance) uint64 {
	return inst.NodeID()
}

// ModuleID returns the id of the module the caller was instantiated from.
// Processes can only be spawned on nodes that know the same module.
func ModuleID(inst *Instance) uint64 {
	return inst.abi.DistributedModuleID()
}

// Nodes returns the ids of the other nodes in the cluster.
func Nodes(inst *Instance) []uint64 {
	n := inst.abi.DistributedNodesCount()
	if n == 0 {
		return nil
	}
	buf := make([]uint64, n)
	return buf[:inst.abi.DistributedGetNodes(buf)]
}
