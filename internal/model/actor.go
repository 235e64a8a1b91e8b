package model

type Role string

const (
	RoleStudent       Role = "student"
	RoleTeacher       Role = "teacher"
	RoleSchoolOwner   Role = "school_owner"
	RolePlatformOwner Role = "platform_owner"
)

// Actor — инициатор операции. Роль и идентичность разрешаются
// внешним слоем авторизации до вызова движка.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// ManagesTeacher сообщает может ли актор действовать от имени учителя:
// сам учитель, владелец школы с полномочиями над ним или владелец платформы.
// Принадлежность владельца школы конкретному учителю проверяется снаружи.
func (a Actor) ManagesTeacher(teacherID int64) bool {
	switch a.Role {
	case RoleTeacher:
		return a.UserID == teacherID
	case RoleSchoolOwner, RolePlatformOwner:
		return true
	default:
		return false
	}
}
