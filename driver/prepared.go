// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"sort"
	"sync"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/types"
)

// PreparedStatement is a compiled query. It is immutable after
// Prepare except for the bind variables and the attached topology
// info, which later query responses may refresh. Safe for concurrent
// execution; bind variables are copied at serialization time.
type PreparedStatement struct {
	sqlText   string
	statement []byte // opaque server blob, sent back verbatim
	queryPlan string
	info      *p.PreparedInfo

	mu       sync.Mutex
	bindVars map[string]types.FieldValue
	topology *TopologyInfo
}

func newPreparedStatement(sqlText string, blob []byte, queryPlan string) (*PreparedStatement, error) {
	info, err := p.ParsePreparedInfo(blob)
	if err != nil {
		return nil, err
	}
	return &PreparedStatement{
		sqlText:   sqlText,
		statement: blob,
		queryPlan: queryPlan,
		info:      info,
	}, nil
}

// SQLText returns the statement text the query was prepared from.
func (ps *PreparedStatement) SQLText() string { return ps.sqlText }

// QueryPlan returns the server's plan printout; empty unless the
// prepare asked for it.
func (ps *PreparedStatement) QueryPlan() string { return ps.queryPlan }

// TableName returns the table the statement operates on.
func (ps *PreparedStatement) TableName() string { return ps.info.TableName }

// Namespace returns the statement's namespace, if any.
func (ps *PreparedStatement) Namespace() string { return ps.info.Namespace }

// SetVariable binds a value to a named variable ($name form).
func (ps *PreparedStatement) SetVariable(name string, value types.FieldValue) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.bindVars == nil {
		ps.bindVars = map[string]types.FieldValue{}
	}
	ps.bindVars[name] = value
}

// ClearVariables removes all bound variables.
func (ps *PreparedStatement) ClearVariables() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.bindVars = nil
}

// variables returns a name-sorted snapshot of the bound variables.
func (ps *PreparedStatement) variables() []bindVariable {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.bindVars) == 0 {
		return nil
	}
	vars := make([]bindVariable, 0, len(ps.bindVars))
	for name, value := range ps.bindVars {
		vars = append(vars, bindVariable{name, value})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}

type bindVariable struct {
	name  string
	value types.FieldValue
}

// Topology returns the cached shard topology, nil when none has been
// reported yet.
func (ps *PreparedStatement) Topology() *TopologyInfo {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.topology
}

// setTopology installs ti if its sequence number supersedes the cached
// one.
func (ps *PreparedStatement) setTopology(ti *TopologyInfo) {
	if ti == nil {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.topology == nil || ti.SeqNum > ps.topology.SeqNum {
		ps.topology = ti
	}
}

func (ps *PreparedStatement) topoSeqNum() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.topology == nil {
		return -1
	}
	return ps.topology.SeqNum
}
