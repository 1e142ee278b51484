package models

// Permission is a single capability bit. A Role carries a set of them.
type Permission int

const (
	PermFollow  Permission = 0x01
	PermComment Permission = 0x02
	PermWrite   Permission = 0x04
	PermClean   Permission = 0x08
	PermFile    Permission = 0x10
	PermAdmin   Permission = 0x80
)

// AllPermissions lists every defined permission bit.
var AllPermissions = []Permission{PermFollow, PermComment, PermWrite, PermClean, PermFile, PermAdmin}

func (p Permission) String() string {
	switch p {
	case PermFollow:
		return "FOLLOW"
	case PermComment:
		return "COMMENT"
	case PermWrite:
		return "WRITE"
	case PermClean:
		return "CLEAN"
	case PermFile:
		return "FILE"
	case PermAdmin:
		return "ADMIN"
	}
	return "UNKNOWN"
}

type Role struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:64;uniqueIndex;not null" json:"name"`
	IsDefault   bool       `gorm:"default:false;index" json:"is_default"`
	Permissions Permission `gorm:"not null;default:0" json:"permissions"`
}

// Has reports whether every bit of perm is present.
func (r *Role) Has(perm Permission) bool {
	return r != nil && r.Permissions&perm == perm
}

// RoleSeed describes the static reference roles.
type RoleSeed struct {
	Name        string
	Permissions Permission
	Default     bool
}

const RoleAdministrator = "Administrator"

// DefaultRoles is the role reference data seeded at startup.
var DefaultRoles = []RoleSeed{
	{Name: "User", Permissions: PermFollow | PermComment | PermWrite, Default: true},
	{Name: "Moderator", Permissions: PermFollow | PermComment | PermWrite | PermClean},
	{Name: "Archivist", Permissions: PermFollow | PermComment | PermWrite | PermFile},
	{Name: RoleAdministrator, Permissions: PermFollow | PermComment | PermWrite | PermClean | PermFile | PermAdmin},
}
