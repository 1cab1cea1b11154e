package models

// Global permission levels, highest to lowest. Class roles use the same scale
// in class_users.permissions.
const (
	ManagerPermissions = 5
	TeacherPermissions = 4
	ModPermissions     = 3
	StudentPermissions = 2
	GuestPermissions   = 1
	BannedPermissions  = 0
)
