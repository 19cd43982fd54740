package matching

import (
	"context"
	"strings"

	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
)

// Input carries what the matcher may use: the payer's reference token and,
// as fallback, their MSISDN. SaccoID narrows resolution to one tenant and
// may be uuid.Nil when the caller has no tenant hint.
type Input struct {
	SaccoID   uuid.UUID
	Reference string
	Msisdn    string
}

// Result is the classification of one transaction against the directory.
// Status is POSTED when a group resolved (member may still be nil when
// ambiguous), UNALLOCATED when nothing resolved.
type Result struct {
	SaccoID   uuid.UUID
	IkiminaID *uuid.UUID
	MemberID  *uuid.UUID
	Status    string
}

// referenceToken is a hierarchical routing code:
// COUNTRY.DISTRICT.SACCO.GROUP.MEMBER (5 parts), DISTRICT.SACCO.GROUP.MEMBER
// (legacy 4 parts) or DISTRICT.SACCO.GROUP (group only).
type referenceToken struct {
	groupCode  string
	memberCode string
}

func parseReference(raw string) *referenceToken {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(raw)), ".")
	switch len(parts) {
	case 5:
		return &referenceToken{groupCode: parts[3], memberCode: parts[4]}
	case 4:
		return &referenceToken{groupCode: parts[2], memberCode: parts[3]}
	case 3:
		return &referenceToken{groupCode: parts[2]}
	}
	return nil
}

// Matcher resolves transactions against the tenant directory. It has no
// state of its own: same input and directory snapshot, same result.
type Matcher struct {
	directory repository.DirectoryStore
}

func NewMatcher(directory repository.DirectoryStore) *Matcher {
	return &Matcher{directory: directory}
}

func (m *Matcher) Match(ctx context.Context, in Input) (Result, error) {
	result := Result{SaccoID: in.SaccoID, Status: models.PaymentStatusUnallocated}

	var group *models.Ikimina
	var memberCode string

	if token := parseReference(in.Reference); token != nil {
		found, err := m.directory.GroupByCode(ctx, token.groupCode)
		if err != nil {
			return result, err
		}
		// A group from another tenant is treated as unresolved: reference
		// resolution must never cross the caller's tenant scope.
		if found != nil && (in.SaccoID == uuid.Nil || found.SaccoID == in.SaccoID) {
			group = found
			memberCode = token.memberCode
		}
	}

	if group != nil {
		result.SaccoID = group.SaccoID
		result.IkiminaID = &group.ID
		result.Status = models.PaymentStatusPosted

		if memberCode != "" {
			member, err := m.directory.MemberByCode(ctx, group.ID, memberCode)
			if err != nil {
				return result, err
			}
			if member != nil {
				result.MemberID = &member.ID
				return result, nil
			}
		}
	}

	// Member segment missing or unresolved: fall back to the MSISDN
	// directory. A single hit fills in the member (and the group when none
	// resolved yet); several hits in one group leave the member nil so staff
	// can disambiguate, without blocking the posting to the group.
	if in.Msisdn != "" {
		members, err := m.directory.MembersByMsisdn(ctx, result.SaccoID, in.Msisdn)
		if err != nil {
			return result, err
		}
		if group != nil {
			members = filterByGroup(members, group.ID)
		}

		switch {
		case len(members) == 1:
			result.SaccoID = members[0].SaccoID
			result.IkiminaID = &members[0].IkiminaID
			result.MemberID = &members[0].ID
			result.Status = models.PaymentStatusPosted
		case len(members) > 1 && group == nil && sameGroup(members):
			result.SaccoID = members[0].SaccoID
			result.IkiminaID = &members[0].IkiminaID
			result.Status = models.PaymentStatusPosted
		}
	}

	return result, nil
}

func filterByGroup(members []models.Member, ikiminaID uuid.UUID) []models.Member {
	var filtered []models.Member
	for _, member := range members {
		if member.IkiminaID == ikiminaID {
			filtered = append(filtered, member)
		}
	}
	return filtered
}

func sameGroup(members []models.Member) bool {
	for _, member := range members[1:] {
		if member.IkiminaID != members[0].IkiminaID {
			return false
		}
	}
	return true
}
