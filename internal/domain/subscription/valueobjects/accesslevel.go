package valueobjects

// AccessLevel is the operational capability granted to a tenant.
type AccessLevel string

const (
	AccessLevelFull     AccessLevel = "full"
	AccessLevelReadOnly AccessLevel = "read_only"
	AccessLevelBlocked  AccessLevel = "blocked"
	// AccessLevelNone means the tenant has no subscription at all.
	AccessLevelNone AccessLevel = "none"
)

func (a AccessLevel) String() string {
	return string(a)
}

// Operation is a class of tenant activity gated by the access level.
type Operation string

const (
	OperationRead    Operation = "read"
	OperationWrite   Operation = "write"
	OperationPOS     Operation = "pos"
	OperationReports Operation = "reports"
)

type OperationPermissions struct {
	CanRead        bool
	CanWrite       bool
	CanUsePOS      bool
	CanViewReports bool
}

// Permissions depends on the access level only.
func (a AccessLevel) Permissions() OperationPermissions {
	switch a {
	case AccessLevelFull:
		return OperationPermissions{CanRead: true, CanWrite: true, CanUsePOS: true, CanViewReports: true}
	case AccessLevelReadOnly:
		return OperationPermissions{CanRead: true, CanViewReports: true}
	default:
		return OperationPermissions{}
	}
}

func (p OperationPermissions) Allows(op Operation) bool {
	switch op {
	case OperationRead:
		return p.CanRead
	case OperationWrite:
		return p.CanWrite
	case OperationPOS:
		return p.CanUsePOS
	case OperationReports:
		return p.CanViewReports
	default:
		return false
	}
}
