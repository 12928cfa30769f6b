package entity

// UserType distinguishes people renting services from people offering them
type UserType string

const (
	UserTypeClient   UserType = "Client"
	UserTypeProvider UserType = "Provider"
)

// Valid reports membership in the enum
func (t UserType) Valid() bool {
	return t == UserTypeClient || t == UserTypeProvider
}

// AdminType is set only when IsAdmin is true
type AdminType string

const (
	AdminSuper     AdminType = "Super"
	AdminModerator AdminType = "Moderator"
	AdminSupport   AdminType = "Support"
)

type AccountStatus string

const (
	AccountActive      AccountStatus = "Active"
	AccountSuspended   AccountStatus = "Suspended"
	AccountDeactivated AccountStatus = "Deactivated"
)

type AuthProvider string

const (
	AuthGoogle  AuthProvider = "Google"
	AuthEmail   AuthProvider = "Email"
	AuthTwitter AuthProvider = "Twitter"
)
