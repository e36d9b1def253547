package memory

import (
	"github.com/oasisprotocol/ccnet/ifaces"
	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/pathkey"
)

// NewProcess allocates a process rooted at path and returns its id.
func (n *Network) NewProcess(path pathkey.Path) api.ProcessID {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextProcessID()
	n.processes[id] = api.NewProcess(path)
	n.logger.Debug("process created", "process_id", id, "path", path.String())
	return id
}

// AddImplementation records that pid claims to implement key.
func (n *Network) AddImplementation(pid api.ProcessID, key ifaces.Key) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.processes[pid]
	if !ok {
		return api.ErrNotFound
	}
	p.AddImplementation(key)
	return nil
}

// VerifyImplementations checks pid's claimed interfaces for prerequisite
// closure against lookup.
func (n *Network) VerifyImplementations(pid api.ProcessID, lookup ifaces.Lookup) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.processes[pid]
	if !ok {
		return api.ErrNotFound
	}
	err := p.VerifyImplementations(lookup, n.logger.Fatal)
	if err != nil {
		n.metrics.PrerequisiteFailure()
	}
	return err
}
