package domain

import "time"

const (
	RouteLogin   = "/login"
	RouteResumes = "/resumes"
	RouteUpload  = "/upload"
)

// Credentials is the access/refresh pair issued on login or refresh.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (c Credentials) Authenticated() bool {
	return c.Access != ""
}

func (c Credentials) CanRefresh() bool {
	return c.Refresh != ""
}

type AuthStatus struct {
	Authenticated bool
	CanRefresh    bool
	AccessExpiry  time.Time
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}
