package models

type UserRole string

// RoleAdmin is the only role; it is granted by the admin login.
const RoleAdmin UserRole = "admin"
