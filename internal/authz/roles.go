package authz

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// DefaultRole — роль, которую получает каждый новый пользователь при регистрации.
const DefaultRole = RoleUser

func IsElevated(role string) bool {
	return role == RoleAdmin
}
