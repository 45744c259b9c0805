// Package rtcp implements the reverse-connect tunnel protocol: two
// peers build authenticated streams and datagrams across a single
// long-lived TCP connection even when only one side is publicly
// reachable.
package rtcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// DefaultStackPort is the default RTCP control port.
const DefaultStackPort uint16 = 2980

// TargetIDKind distinguishes the two forms a target id can take.
type TargetIDKind int

const (
	TargetIDDeviceName TargetIDKind = iota
	TargetIDDeviceDID
)

// TargetID names a peer device, either by plain hostname or by DID.
type TargetID struct {
	Kind TargetIDKind
	Name string // hostname form
	DID  string // did:{method}:{id} form
}

// ParseTargetID parses a bare id string (no port) into a TargetID,
// recognizing both the "did:" prefix and the ".did" hostname suffix
// as DID forms.
func ParseTargetID(s string) (TargetID, error) {
	if s == "" {
		return TargetID{}, fmt.Errorf("%w: empty target id", errors.ErrInvalidData)
	}
	if strings.HasPrefix(s, "did:") || strings.HasSuffix(s, ".did") {
		return TargetID{Kind: TargetIDDeviceDID, DID: s}, nil
	}
	return TargetID{Kind: TargetIDDeviceName, Name: s}, nil
}

// String returns the textual form of the id.
func (t TargetID) String() string {
	if t.Kind == TargetIDDeviceDID {
		return t.DID
	}
	return t.Name
}

// TargetStackID names a peer's RTCP stack: a TargetID plus the control
// port it listens on.
type TargetStackID struct {
	ID        TargetID
	StackPort uint16
}

// ParseTargetStackID parses "name[:port]" or "did:{method}:{id}[:port]"
// into a TargetStackID, defaulting to DefaultStackPort.
func ParseTargetStackID(s string) (TargetStackID, error) {
	parts := strings.Split(s, ":")

	// A DID string itself contains colons ("did:method:id"), so only
	// treat the last colon-separated part as a port if it parses as one
	// and doing so leaves a non-empty remainder.
	if len(parts) >= 2 {
		if port, err := strconv.ParseUint(parts[len(parts)-1], 10, 16); err == nil {
			hostPart := strings.Join(parts[:len(parts)-1], ":")
			if hostPart != "" {
				id, err := ParseTargetID(hostPart)
				if err != nil {
					return TargetStackID{}, err
				}
				return TargetStackID{ID: id, StackPort: uint16(port)}, nil
			}
		}
	}

	id, err := ParseTargetID(s)
	if err != nil {
		return TargetStackID{}, err
	}
	return TargetStackID{ID: id, StackPort: DefaultStackPort}, nil
}

// String returns the canonical "id:port" textual form.
func (t TargetStackID) String() string {
	return fmt.Sprintf("%s:%d", t.ID.String(), t.StackPort)
}
