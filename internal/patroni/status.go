package patroni

import (
	"fmt"
	"strings"
)

// NodeRole is the role Patroni reports for a cluster member.
type NodeRole string

const (
	RoleLeader        NodeRole = "LEADER"
	RoleReplica       NodeRole = "REPLICA"
	RoleStandbyLeader NodeRole = "STANDBY_LEADER"
)

// ParseNodeRole maps a member's role string onto a NodeRole,
// case-insensitively. Unknown roles are an error, never a default.
func ParseNodeRole(s string) (NodeRole, error) {
	switch NodeRole(strings.ToUpper(s)) {
	case RoleLeader:
		return RoleLeader, nil
	case RoleReplica:
		return RoleReplica, nil
	case RoleStandbyLeader:
		return RoleStandbyLeader, nil
	default:
		return "", fmt.Errorf("unknown node role %q", s)
	}
}

// StateRunning is the member state Patroni reports for a healthy node.
const StateRunning = "running"

// Member is one cluster member as reported by GET /cluster.
type Member struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	State    string `json:"state"`
	Timeline int64  `json:"timeline"`
	Lag      int64  `json:"lag"`
}

// ClusterStatus is the decoded body of GET /cluster.
type ClusterStatus struct {
	Paused  bool     `json:"paused"`
	Members []Member `json:"members"`
}
