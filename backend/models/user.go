package models

type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeTeacher UserType = "teacher"
)

// UserSettings mirrors the notification preferences kept in the identity
// provider's public metadata.
type UserSettings struct {
	Theme                 string `json:"theme,omitempty"`
	EmailAlerts           bool   `json:"emailAlerts"`
	SMSAlerts             bool   `json:"smsAlerts"`
	NotificationFrequency string `json:"notificationFrequency,omitempty" validate:"omitempty,oneof=immediate daily weekly"`
}

type UserMetadata struct {
	UserType UserType     `json:"userType,omitempty" validate:"omitempty,oneof=student teacher"`
	Settings UserSettings `json:"settings"`
}

// User is the subset of the identity provider's user record the API returns.
type User struct {
	ID             string       `json:"id"`
	FirstName      string       `json:"firstName,omitempty"`
	LastName       string       `json:"lastName,omitempty"`
	PublicMetadata UserMetadata `json:"publicMetadata"`
}
