package models

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Permission codenames guarding the dashboards
const (
	PermissionIndexViewer        = "dashboard.index_viewer"
	PermissionReservationsViewer = "dashboard.reservations_viewer"
)

// ErrInvalidPermission marks a codename without the app_label.codename shape
var ErrInvalidPermission = errors.New("invalid permission codename")

var permissionRegex = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+$`)

// ValidatePermissions checks every codename has the app_label.codename shape
func ValidatePermissions(codenames []string) error {
	for _, p := range codenames {
		if !permissionRegex.MatchString(p) {
			return fmt.Errorf("%w: %s", ErrInvalidPermission, p)
		}
	}
	return nil
}

// ParsePermissions splits a comma-separated codename list
func ParsePermissions(raw string) []string {
	return dedupe(strings.Split(raw, ","))
}

// dedupe trims codenames and drops blanks and repeats, keeping first-seen order
func dedupe(codenames []string) []string {
	out := []string{}
	for _, c := range codenames {
		if c = strings.TrimSpace(c); c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
