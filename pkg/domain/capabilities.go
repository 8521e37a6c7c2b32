package domain

import (
	"fmt"
	"strings"
)

// Capability is a single permission bit held by an account.
type Capability uint32

// Known capabilities, in packing order.
const (
	CapAdministrator Capability = 1 << iota
	CapManageUsers
	CapManageActivityTypes
	CapManageBeneficiaries
	CapManageWorkloads
	CapManagePublicActivities
	CapManagePublicTasks
	CapManagePrivateActivities
	CapManagePrivateTasks
	CapLogWork
	CapLogEvents
	CapGenerateReports
	CapBackupAndRestore

	capSentinel
)

var capabilityNames = map[Capability]string{
	CapAdministrator:           "Administrator",
	CapManageUsers:             "ManageUsers",
	CapManageActivityTypes:     "ManageActivityTypes",
	CapManageBeneficiaries:     "ManageBeneficiaries",
	CapManageWorkloads:         "ManageWorkloads",
	CapManagePublicActivities:  "ManagePublicActivities",
	CapManagePublicTasks:       "ManagePublicTasks",
	CapManagePrivateActivities: "ManagePrivateActivities",
	CapManagePrivateTasks:      "ManagePrivateTasks",
	CapLogWork:                 "LogWork",
	CapLogEvents:               "LogEvents",
	CapGenerateReports:         "GenerateReports",
	CapBackupAndRestore:        "BackupAndRestore",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%#x)", uint32(c))
}

// Capabilities is a set of capability bits.
type Capabilities uint32

// NoCapabilities is the empty set.
const NoCapabilities Capabilities = 0

// AllCapabilities contains every known bit.
const AllCapabilities = Capabilities(capSentinel - 1)

// NewCapabilities builds a set from individual bits.
func NewCapabilities(caps ...Capability) Capabilities {
	var out Capabilities
	for _, c := range caps {
		out |= Capabilities(c)
	}
	return out
}

// Contains reports whether every bit of c is present.
func (s Capabilities) Contains(c Capability) bool {
	return uint32(s)&uint32(c) == uint32(c)
}

// ContainsAny reports whether at least one of the given bits is present.
func (s Capabilities) ContainsAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Contains(c) {
			return true
		}
	}
	return false
}

// With returns s plus c.
func (s Capabilities) With(c Capability) Capabilities { return s | Capabilities(c) }

// Without returns s minus c.
func (s Capabilities) Without(c Capability) Capabilities { return s &^ Capabilities(c) }

// IsValid reports whether only known bits are set.
func (s Capabilities) IsValid() bool { return s&^AllCapabilities == 0 }

// List returns the contained capabilities in packing order.
func (s Capabilities) List() []Capability {
	var out []Capability
	for c := Capability(1); c < capSentinel; c <<= 1 {
		if s.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Pack encodes the set as a comma-separated token, e.g. "Administrator,LogWork".
func (s Capabilities) Pack() string {
	caps := s.List()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

func (s Capabilities) String() string { return "{" + s.Pack() + "}" }

// ParseCapabilities decodes a token produced by Pack.
func ParseCapabilities(token string) (Capabilities, error) {
	var out Capabilities
	if strings.TrimSpace(token) == "" {
		return out, nil
	}
	for _, part := range strings.Split(token, ",") {
		name := strings.TrimSpace(part)
		found := false
		for c, known := range capabilityNames {
			if known == name {
				out = out.With(c)
				found = true
				break
			}
		}
		if !found {
			return NoCapabilities, fmt.Errorf("unknown capability %q", name)
		}
	}
	return out, nil
}
