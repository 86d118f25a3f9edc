// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, validation and utils can all import types without
// depending on each other.
package types

import "time"

// Course is one of the programs a student can be enrolled in.
type Course string

// The closed set of offered programs. Anything else is rejected both by
// the validation layer and by the store's CHECK constraint.
const (
	CourseComputerScience       Course = "BSc (Hons) in Computer Science"
	CourseInformationTechnology Course = "BSc (Hons) in Information Technology"
	CourseSoftwareEngineering   Course = "BSc (Hons) in Software Engineering"
	CourseDataScience           Course = "BSc (Hons) in Data Science"
)

// Courses lists every valid Course in display order.
var Courses = []Course{
	CourseComputerScience,
	CourseInformationTechnology,
	CourseSoftwareEngineering,
	CourseDataScience,
}

// Valid reports whether c is a member of Courses.
func (c Course) Valid() bool {
	for _, known := range Courses {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the enrollment state of a student.
type Status string

const (
	StatusActive    Status = "Active"
	StatusPending   Status = "Pending"
	StatusGraduated Status = "Graduated"
	StatusDropped   Status = "Dropped"
)

// DefaultStatus is applied when a create request omits the status.
const DefaultStatus = StatusPending

// Statuses lists every valid Status.
var Statuses = []Status{StatusActive, StatusPending, StatusGraduated, StatusDropped}

// Valid reports whether s is a member of Statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  controls how the field appears when encoded to JSON.
//
//  2. validate:"..." holds the rules checked by the validate package
//     before anything is handed to the store. The custom tags
//     (simple_email, course, student_status) are registered there.
//
// ID, CreatedAt and UpdatedAt are owned by the store and never read
// from a request body.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"      validate:"required"`
	Email     string    `json:"email"     validate:"required,simple_email"`
	Phone     string    `json:"phone"     validate:"required,number"`
	Course    Course    `json:"course"    validate:"required,course"`
	Status    Status    `json:"status"    validate:"required,student_status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StudentInput is the request body accepted by create and update.
//
// Every field is a pointer so an update can tell "not sent" (nil) apart
// from "sent as empty string". A create simply applies the input onto a
// zero Student; an update applies it onto the stored record.
type StudentInput struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Course *Course `json:"course"`
	Status *Status `json:"status"`
}

// ApplyTo returns a copy of s with every non-nil field of in written
// over it. Identity and timestamps are left untouched.
func (in StudentInput) ApplyTo(s Student) Student {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.Phone != nil {
		s.Phone = *in.Phone
	}
	if in.Course != nil {
		s.Course = *in.Course
	}
	if in.Status != nil {
		s.Status = *in.Status
	}
	return s
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,simple_email"`
	Password string `json:"password" validate:"required,min=6,strong_password"`
}

// Admin is the payload returned after a successful login. It doubles as
// the opaque success marker the frontend stores in its session.
type Admin struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
