package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation marks input rejected before any network call.
var ErrValidation = errors.New("validation failed")

type Creator struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

type Brand struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Owner              string      `json:"owner"`
	RegistrationNumber string      `json:"registration_number"`
	Status             BrandStatus `json:"status"`
	CreatedBy          int64       `json:"created_by"`
	Creator            Creator     `json:"creator"`
}

type CreateBrandData struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Owner              string `json:"owner"`
	RegistrationNumber string `json:"registration_number"`
}

func (d CreateBrandData) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(d.RegistrationNumber) == "" {
		missing = append(missing, "registration_number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// UpdateBrandData carries a partial update; nil fields are left untouched
// by the server.
type UpdateBrandData struct {
	ID                 int64        `json:"id"`
	Name               *string      `json:"name,omitempty"`
	Description        *string      `json:"description,omitempty"`
	Owner              *string      `json:"owner,omitempty"`
	RegistrationNumber *string      `json:"registration_number,omitempty"`
	Status             *BrandStatus `json:"status,omitempty"`
}

func (d UpdateBrandData) Validate() error {
	if d.ID <= 0 {
		return fmt.Errorf("%w: brand id is required", ErrValidation)
	}
	if d.Name == nil && d.Description == nil && d.Owner == nil && d.RegistrationNumber == nil && d.Status == nil {
		return fmt.Errorf("%w: no changes", ErrValidation)
	}
	required := map[string]*string{
		"name":                d.Name,
		"owner":               d.Owner,
		"registration_number": d.RegistrationNumber,
	}
	for _, field := range []string{"name", "owner", "registration_number"} {
		if v := required[field]; v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s cannot be blank", ErrValidation, field)
		}
	}
	if d.Status != nil && !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *d.Status)
	}
	return nil
}

// AuditLog is produced by the server and never modified by the console.
// Action is kept as a plain string: values outside the known set are legal.
type AuditLog struct {
	ID             int64   `json:"id"`
	BrandID        int64   `json:"brand_id"`
	BrandName      string  `json:"brand_name"`
	Action         string  `json:"action"`
	UserID         int64   `json:"user_id"`
	UserEmail      string  `json:"user_email"`
	OldValues      *string `json:"old_values"`
	NewValues      *string `json:"new_values"`
	ChangesSummary string  `json:"changes_summary"`
	IPAddress      string  `json:"ip_address"`
	UserAgent      string  `json:"user_agent"`
	Timestamp      string  `json:"timestamp"`
}

type AuditStatistics struct {
	TotalAudits   int64 `json:"total_audits"`
	Creations     int64 `json:"creations"`
	Updates       int64 `json:"updates"`
	Deletions     int64 `json:"deletions"`
	StatusChanges int64 `json:"status_changes"`
}

type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// StoredToken is the single persisted row of the token store.
type StoredToken struct {
	Key       string    `gorm:"primaryKey;column:storage_key;size:64" json:"key"`
	Value     string    `gorm:"not null"                             json:"-"`
	UpdatedAt time.Time `gorm:"not null"                             json:"updated_at"`
}
